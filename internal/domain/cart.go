package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidProduct = errors.New("invalid product data")
	ErrQuantityLimit  = fmt.Errorf("maximum %d items allowed per product", MaxQuantityPerItem)
	ErrLineNotFound   = errors.New("item not found in cart")
	ErrLineExists     = errors.New("item already in cart")
)

type CartLine struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Image    string    `json:"image"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
}

func (l CartLine) LineTotal() float64 {
	return l.Price * float64(l.Quantity)
}

// Cart is an ordered list of lines keyed by product name. At most one line
// exists per name and every quantity stays within [1, MaxQuantityPerItem].
type Cart struct {
	Lines []CartLine
}

// RemovedLine remembers where a line sat so it can be put back.
type RemovedLine struct {
	Line  CartLine `json:"line"`
	Index int      `json:"index"`
}

type QuantityChange struct {
	Line    CartLine
	Removed *RemovedLine
	Clamped bool
}

func (c *Cart) Find(name string) (int, bool) {
	for i, line := range c.Lines {
		if line.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (c *Cart) Add(name string, price float64, image, id string, now time.Time) (CartLine, error) {
	if strings.TrimSpace(name) == "" || price <= 0 {
		return CartLine{}, ErrInvalidProduct
	}

	if i, ok := c.Find(name); ok {
		if c.Lines[i].Quantity >= MaxQuantityPerItem {
			return c.Lines[i], ErrQuantityLimit
		}
		c.Lines[i].Quantity++
		return c.Lines[i], nil
	}

	line := CartLine{
		ID:       id,
		Name:     name,
		Price:    price,
		Image:    image,
		Quantity: 1,
		AddedAt:  now,
	}
	c.Lines = append(c.Lines, line)
	return line, nil
}

func (c *Cart) Remove(name string) (RemovedLine, error) {
	i, ok := c.Find(name)
	if !ok {
		return RemovedLine{}, ErrLineNotFound
	}

	removed := RemovedLine{Line: c.Lines[i], Index: i}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return removed, nil
}

// Restore puts a removed line back at its old position, or at the end when the
// cart has shrunk since. A line with the same name must not exist.
func (c *Cart) Restore(r RemovedLine) error {
	if _, ok := c.Find(r.Line.Name); ok {
		return ErrLineExists
	}

	idx := r.Index
	if idx < 0 {
		idx = 0
	}
	if idx > len(c.Lines) {
		idx = len(c.Lines)
	}

	c.Lines = append(c.Lines, CartLine{})
	copy(c.Lines[idx+1:], c.Lines[idx:])
	c.Lines[idx] = r.Line
	return nil
}

func (c *Cart) SetQuantity(name string, delta int) (QuantityChange, error) {
	i, ok := c.Find(name)
	if !ok {
		return QuantityChange{}, ErrLineNotFound
	}

	qty := c.Lines[i].Quantity + delta
	if qty <= 0 {
		removed, err := c.Remove(name)
		if err != nil {
			return QuantityChange{}, err
		}
		return QuantityChange{Line: removed.Line, Removed: &removed}, nil
	}

	change := QuantityChange{}
	if qty > MaxQuantityPerItem {
		qty = MaxQuantityPerItem
		change.Clamped = true
	}
	c.Lines[i].Quantity = qty
	change.Line = c.Lines[i]
	return change, nil
}

// Merge adds order items into the cart, raising quantities of lines that
// already exist. Quantities are clamped to MaxQuantityPerItem.
func (c *Cart) Merge(items []OrderItem, newID func() string, now time.Time) {
	for _, item := range items {
		if item.Quantity <= 0 || strings.TrimSpace(item.Name) == "" {
			continue
		}
		if i, ok := c.Find(item.Name); ok {
			c.Lines[i].Quantity = clampQuantity(c.Lines[i].Quantity + item.Quantity)
			continue
		}
		c.Lines = append(c.Lines, CartLine{
			ID:       newID(),
			Name:     item.Name,
			Price:    item.Price,
			Image:    item.Image,
			Quantity: clampQuantity(item.Quantity),
			AddedAt:  now,
		})
	}
}

func (c Cart) Subtotal() float64 {
	subtotal := 0.0
	for _, line := range c.Lines {
		subtotal += line.LineTotal()
	}
	return subtotal
}

func (c Cart) Totals() Totals {
	return TotalsFor(c.Subtotal())
}

func (c Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func clampQuantity(q int) int {
	if q > MaxQuantityPerItem {
		return MaxQuantityPerItem
	}
	if q < 1 {
		return 1
	}
	return q
}
