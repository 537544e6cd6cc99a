package controller

import "quickorder/internal/domain"

// OrderView decorates an order for display. NextStatuses lists the legal
// targets for a status update.
type OrderView struct {
	domain.Order
	StatusLabel        string               `json:"statusLabel"`
	PaymentMethodLabel string               `json:"paymentMethodLabel"`
	DisplayTotal       string               `json:"displayTotal"`
	NextStatuses       []domain.OrderStatus `json:"nextStatuses"`
}

func viewOf(o domain.Order) OrderView {
	return OrderView{
		Order:              o,
		StatusLabel:        o.Status.Label(),
		PaymentMethodLabel: o.PaymentMethod.Label(),
		DisplayTotal:       domain.FormatMoney(o.Total),
		NextStatuses:       o.Status.Next(),
	}
}

func viewsOf(orders []domain.Order) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, viewOf(o))
	}
	return views
}
