package domain

import (
	"context"
	"time"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a storefront account. Credentials belong to the auth service and
// are never loaded here.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Role      string    `json:"role" db:"role"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserSummary is the public projection of a user attached to reviews
type UserSummary struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// List retrieves all users, newest first
	List(ctx context.Context) ([]*User, error)

	// Delete removes a user together with everything the user owns and
	// returns the ids of products whose review set changed
	Delete(ctx context.Context, id string) ([]string, error)
}
