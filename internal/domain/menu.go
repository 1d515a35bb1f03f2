package domain

import "time"

// MenuItem belongs to the menu management collaborator. The order
// core reads it only to snapshot name and price into line items at
// checkout and never writes it.
type MenuItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image,omitempty"`
	IsPopular   bool    `json:"is_popular,omitempty"`
}

// StatusLogEntry is one row of the append-only status history kept
// alongside every order.
type StatusLogEntry struct {
	Status    Status    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}
