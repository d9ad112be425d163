package domain

import (
	"context"
	"time"
)

// Review moderation states
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// Review represents a customer's review of a product
type Review struct {
	ID        string    `json:"id" db:"id"`
	ProductID string    `json:"product_id" db:"product_id" validate:"required"`
	UserID    string    `json:"user_id" db:"user_id" validate:"required"`
	Rating    int       `json:"rating" db:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment" db:"comment" validate:"max=5000"`
	Status    string    `json:"status" db:"status" validate:"oneof=pending approved rejected"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	User *UserSummary `json:"user,omitempty" db:"-"`
}

// ReviewPatch carries the fields of a partial review update; nil means unchanged
type ReviewPatch struct {
	Rating  *int
	Comment *string
}

// Apply copies supplied fields onto the review. An empty comment is treated
// as not supplied.
func (p ReviewPatch) Apply(r *Review) {
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	if p.Comment != nil && *p.Comment != "" {
		r.Comment = *p.Comment
	}
}

// Summarize folds a set of ratings into their mean and count. An empty set
// yields a zero rating.
func Summarize(ratings []int) RatingSummary {
	if len(ratings) == 0 {
		return RatingSummary{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return RatingSummary{
		Rating:      float64(sum) / float64(len(ratings)),
		ReviewCount: len(ratings),
	}
}

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	// Create creates a new review; ErrAlreadyExists if the user already
	// reviewed the product
	Create(ctx context.Context, review *Review) error

	// GetByID retrieves a review by ID with its author projection
	GetByID(ctx context.Context, id string) (*Review, error)

	// FindByUserAndProduct returns the user's review of a product
	FindByUserAndProduct(ctx context.Context, userID, productID string) (*Review, error)

	// GetByProductID retrieves reviews for a product with pagination, newest first
	GetByProductID(ctx context.Context, productID string, limit, offset int) ([]*Review, error)

	// ListByStatus retrieves all reviews in the given moderation state
	ListByStatus(ctx context.Context, status string) ([]*Review, error)

	// Update updates rating, comment and status of an existing review
	Update(ctx context.Context, review *Review) error

	// Delete removes a review
	Delete(ctx context.Context, id string) error

	// CountByProductID returns the total number of reviews for a product
	CountByProductID(ctx context.Context, productID string) (int, error)
}
