package domain

import "time"

// UserAddress links a user to an address in their address book. The address
// itself is a shared value; the link carries the per-user default flag. At
// most one link per user has Default set.
type UserAddress struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AddressID string    `json:"address_id"`
	Default   bool      `json:"default"`
	CreatedAt time.Time `json:"created_at"`

	// Address is the linked address value, populated on reads.
	Address Address `json:"address"`
}
