package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// TaxRate is applied to the subtotal at creation time. Totals are
// frozen on the record and never recomputed afterwards.
const TaxRate = 0.095

type OrderType string

const (
	TypePickup   OrderType = "pickup"
	TypeDelivery OrderType = "delivery"
)

func (t OrderType) Valid() bool {
	return t == TypePickup || t == TypeDelivery
}

// LineItem is a point-in-time snapshot of a menu item plus quantity.
// Later menu edits must not alter historical orders, so name and
// price are copied, never referenced. Image data is stripped before
// persistence to bound record size.
type LineItem struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

// Order is the central entity: contact info, snapshot line items,
// frozen totals and a lifecycle status.
type Order struct {
	ID           string     `json:"id"`
	PublicID     string     `json:"public_id"`
	CustomerName string     `json:"customer_name"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email"`
	Type         OrderType  `json:"type"`
	Address      string     `json:"address,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Items        []LineItem `json:"items"`
	Subtotal     float64    `json:"subtotal"`
	Tax          float64    `json:"tax"`
	Total        float64    `json:"total"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Draft is everything the checkout flow supplies. ID, public code and
// timestamps are assigned by the store at write time.
type Draft struct {
	CustomerName string     `json:"customer_name"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email"`
	Type         OrderType  `json:"type"`
	Address      string     `json:"address,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Items        []LineItem `json:"items"`
	Subtotal     float64    `json:"subtotal"`
	Tax          float64    `json:"tax"`
	Total        float64    `json:"total"`
}

var (
	errMissingContact = errors.New("customer name, phone and email are required")
	errMissingAddress = errors.New("address is required for delivery orders")
	errAddressSet     = errors.New("address must be empty for pickup orders")
	errNoItems        = errors.New("order must contain at least one item")
)

// Validate rejects malformed drafts before anything touches the
// store. Rejections are synchronous and nothing is partially applied.
func (d *Draft) Validate() error {
	if d.CustomerName == "" || d.Phone == "" || d.Email == "" {
		return errMissingContact
	}
	if !d.Type.Valid() {
		return fmt.Errorf("unknown order type %q", d.Type)
	}
	if d.Type == TypeDelivery && d.Address == "" {
		return errMissingAddress
	}
	if d.Type == TypePickup && d.Address != "" {
		return errAddressSet
	}
	if len(d.Items) == 0 {
		return errNoItems
	}
	for i, item := range d.Items {
		if item.Name == "" {
			return fmt.Errorf("item %d: name is required", i+1)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be positive, got %d", i+1, item.Quantity)
		}
		if item.Price <= 0 {
			return fmt.Errorf("item %d: price must be positive, got %.2f", i+1, item.Price)
		}
	}
	return nil
}

// ComputeTotals fills in subtotal, 9.5% tax and total, each rounded
// to cents.
func (d *Draft) ComputeTotals() {
	subtotal := 0.0
	for _, item := range d.Items {
		subtotal += item.Price * float64(item.Quantity)
	}
	d.Subtotal = roundCents(subtotal)
	d.Tax = roundCents(d.Subtotal * TaxRate)
	d.Total = roundCents(d.Subtotal + d.Tax)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
