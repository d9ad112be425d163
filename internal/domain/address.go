package domain

import (
	"context"
	"time"
)

// Address is a per-user postal address; at most one address per
// (user, type) carries IsDefault
type Address struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Type       string    `json:"type" db:"type" validate:"required,oneof=shipping billing"`
	Street     string    `json:"street" db:"street" validate:"required,max=255"`
	City       string    `json:"city" db:"city" validate:"required,max=100"`
	State      string    `json:"state" db:"state" validate:"max=100"`
	Country    string    `json:"country" db:"country" validate:"required,max=100"`
	PostalCode string    `json:"postal_code" db:"postal_code" validate:"required,max=20"`
	IsDefault  bool      `json:"is_default" db:"is_default"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// AddressRepository defines the interface for address data access
type AddressRepository interface {
	// Create creates a new address with IsDefault false
	Create(ctx context.Context, address *Address) error

	// GetForUser retrieves an address owned by userID
	GetForUser(ctx context.Context, id, userID string) (*Address, error)

	// ListByUser retrieves a user's addresses, defaults first then newest
	ListByUser(ctx context.Context, userID string) ([]*Address, error)

	// Update updates the postal fields and type of an address
	Update(ctx context.Context, address *Address) error

	// Delete removes an address owned by userID
	Delete(ctx context.Context, id, userID string) error

	// SetDefault flags id as the only default among the owner's addresses
	// of addressType, in a single write
	SetDefault(ctx context.Context, userID, addressType, id string) error
}
