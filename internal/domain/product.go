package domain

import "time"

// Product is a catalog entry. Slug is derived from the name for URLs;
// Permalink is a random numeric handle assigned on creation and never
// reused, so it can be shared externally without leaking catalog order.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Permalink   string    `json:"permalink"`
	Description string    `json:"description,omitempty"`
	SKU         string    `json:"sku"`
	Price       int64     `json:"price"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
