package domain

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:   {OrderStatusConfirmed: true, OrderStatusCancelled: true},
	OrderStatusConfirmed: {OrderStatusPreparing: true, OrderStatusCancelled: true},
	OrderStatusPreparing: {OrderStatusDelivered: true, OrderStatusCancelled: true},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// lifecycle lists the statuses in the order they normally happen.
var lifecycle = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var statusLabels = map[OrderStatus]string{
	OrderStatusPending:   "Pending",
	OrderStatusConfirmed: "Accepted order",
	OrderStatusPreparing: "Preparing",
	OrderStatusDelivered: "Delivered",
	OrderStatusCancelled: "Cancelled",
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

func ParseOrderStatus(v string) (OrderStatus, error) {
	s := OrderStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", v)
	}
	return s, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}

// Next lists the statuses an order may move to from s, forward steps first.
// Terminal and unknown statuses have none.
func (s OrderStatus) Next() []OrderStatus {
	next := []OrderStatus{}
	for _, to := range lifecycle {
		if CanTransition(s, to) {
			next = append(next, to)
		}
	}
	return next
}

func (s OrderStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

type PaymentMethod string

const (
	PaymentGCash      PaymentMethod = "gcash"
	PaymentCard       PaymentMethod = "card"
	PaymentCOD        PaymentMethod = "cod"
	PaymentFileUpload PaymentMethod = "file-upload"
)

var paymentLabels = map[PaymentMethod]string{
	PaymentGCash:      "GCash (Payment Proof)",
	PaymentCard:       "Credit/Debit Card",
	PaymentCOD:        "Cash on Delivery",
	PaymentFileUpload: "File Upload (Payment Proof)",
}

func (m PaymentMethod) Valid() bool {
	_, ok := paymentLabels[m]
	return ok
}

// RequiresProof reports whether the method needs an uploaded proof-of-payment image.
func (m PaymentMethod) RequiresProof() bool {
	return m == PaymentGCash || m == PaymentFileUpload
}

func (m PaymentMethod) Label() string {
	if label, ok := paymentLabels[m]; ok {
		return label
	}
	return string(m)
}

type OrderItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
}

type Order struct {
	OrderNumber         string        `json:"orderNumber"`
	OwnerID             string        `json:"ownerId"`
	Items               []OrderItem   `json:"items"`
	Subtotal            float64       `json:"subtotal"`
	DeliveryFee         float64       `json:"deliveryFee"`
	Tax                 float64       `json:"tax"`
	Total               float64       `json:"total"`
	PaymentMethod       PaymentMethod `json:"paymentMethod"`
	DeliveryAddress     string        `json:"deliveryAddress"`
	ContactNumber       string        `json:"contactNumber"`
	SpecialInstructions string        `json:"specialInstructions,omitempty"`
	Timestamp           time.Time     `json:"timestamp"`
	Status              OrderStatus   `json:"status"`
	StatusUpdatedAt     *time.Time    `json:"statusUpdatedAt,omitempty"`
}

func ItemsFromCart(lines []CartLine) []OrderItem {
	items := make([]OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, OrderItem{
			Name:     line.Name,
			Price:    line.Price,
			Quantity: line.Quantity,
			Image:    line.Image,
		})
	}
	return items
}

// GenerateOrderNumber builds "QO" + the last six digits of the millisecond
// clock + three random digits. Numbers are not guaranteed to be unique.
func GenerateOrderNumber(now time.Time, randIntn func(n int) int) string {
	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return fmt.Sprintf("QO%s%03d", millis, randIntn(1000))
}
