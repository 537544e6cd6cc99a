package domain

import "fmt"

const (
	MinOrderAmount        = 10.00
	DeliveryFee           = 2.99
	FreeDeliveryThreshold = 25.00
	TaxRate               = 0.08
	MaxQuantityPerItem    = 10
	CurrencySymbol        = "₱"
)

type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"deliveryFee"`
	Tax         float64 `json:"tax"`
	Total       float64 `json:"total"`
}

// TotalsFor derives fee, tax and total from a subtotal. Values are not rounded;
// rounding is a presentation concern handled by FormatMoney.
func TotalsFor(subtotal float64) Totals {
	fee := DeliveryFee
	if subtotal >= FreeDeliveryThreshold {
		fee = 0
	}
	tax := subtotal * TaxRate

	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Tax:         tax,
		Total:       subtotal + fee + tax,
	}
}

func (t Totals) MeetsMinimum() bool {
	return t.Total >= MinOrderAmount
}

func FormatMoney(amount float64) string {
	return fmt.Sprintf("%s%.2f", CurrencySymbol, amount)
}
