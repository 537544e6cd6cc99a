package domain

import "time"

const (
	MaxProductImages     = 3
	DefaultProductName   = "Unnamed Product"
	DefaultCategory      = "other"
	FallbackProductImage = "fallback.png"

	ProductStatusPending  = "pending"
	ProductStatusApproved = "approved"
)

type Product struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Price       float64    `json:"price" yaml:"price"`
	Images      []string   `json:"images" yaml:"images"`
	Category    string     `json:"category" yaml:"category"`
	Status      string     `json:"status,omitempty" yaml:"status"`
	CreatedBy   string     `json:"createdBy,omitempty" yaml:"-"`
	CreatedAt   *time.Time `json:"createdAt,omitempty" yaml:"-"`
}

func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return FallbackProductImage
	}
	return p.Images[0]
}
