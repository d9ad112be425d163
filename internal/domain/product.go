package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a piece of jewelry in the catalog
type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name" validate:"required,min=1,max=255"`
	Description string          `json:"description" db:"description" validate:"max=10000"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Image       string          `json:"image" db:"image" validate:"max=1024"`
	CategoryID  string          `json:"category_id" db:"category_id" validate:"required"`
	Quantity    int             `json:"quantity" db:"quantity" validate:"gte=0"`
	InStock     bool            `json:"in_stock" db:"in_stock"`
	Featured    bool            `json:"featured" db:"featured"`
	Rating      float64         `json:"rating" db:"rating"`
	ReviewCount int             `json:"review_count" db:"review_count"`
	Version     int             `json:"version" db:"version"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`

	Category *Category `json:"category,omitempty" db:"-"`
}

// ProductFilter narrows a product listing
type ProductFilter struct {
	CategoryID string
	Featured   *bool
	Search     string
}

// RatingSummary is the derived review statistic stored on a product
type RatingSummary struct {
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	// Create creates a new product
	Create(ctx context.Context, product *Product) error

	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, id string) (*Product, error)

	// List retrieves a paginated, filtered list of products, newest first
	List(ctx context.Context, filter ProductFilter, limit, offset int) ([]*Product, error)

	// Count returns the number of products matching filter
	Count(ctx context.Context, filter ProductFilter) (int, error)

	// Update updates an existing product's catalog fields
	Update(ctx context.Context, product *Product) error

	// Delete removes a product
	Delete(ctx context.Context, id string) error

	// CountByCategory returns how many products reference a category
	CountByCategory(ctx context.Context, categoryID string) (int, error)

	// RefreshRating recomputes rating and review_count from the product's
	// current review set and stores them in one write
	RefreshRating(ctx context.Context, productID string) (RatingSummary, error)
}
