package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

const reviewSelect = `
	SELECT r.id, r.product_id, r.user_id, r.rating, r.comment, r.status, r.created_at, r.updated_at,
		u.name AS user_name
	FROM reviews r
	LEFT JOIN users u ON u.id = r.user_id`

// reviewRow adds the author's name from the users join
type reviewRow struct {
	domain.Review
	UserName sql.NullString `db:"user_name"`
}

func (row *reviewRow) toDomain() *domain.Review {
	review := row.Review
	if row.UserName.Valid {
		review.User = &domain.UserSummary{ID: review.UserID, Name: row.UserName.String}
	}
	return &review
}

func reviewsFromRows(rows []reviewRow) []*domain.Review {
	reviews := make([]*domain.Review, 0, len(rows))
	for i := range rows {
		reviews = append(reviews, rows[i].toDomain())
	}
	return reviews
}

// ReviewRepository implements domain.ReviewRepository
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create creates a new review. The (user_id, product_id) unique index turns
// a second review by the same user into ErrAlreadyExists.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	productID, err := parseID(review.ProductID)
	if err != nil {
		return err
	}
	userID, err := parseID(review.UserID)
	if err != nil {
		return err
	}

	// Return domain.ErrNotFound instead of a driver-specific foreign key error
	var exists int
	checkQuery := r.db.Rebind(`SELECT COUNT(*) FROM products WHERE id = ?`)
	if err := r.db.GetContext(ctx, &exists, checkQuery, productID); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: product", domain.ErrNotFound)
	}

	if review.Status == "" {
		review.Status = domain.ReviewPending
	}
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	id, err := insert(ctx, r.db, `
		INSERT INTO reviews (product_id, user_id, rating, comment, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		productID, userID, review.Rating, review.Comment, review.Status, review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: product already reviewed", domain.ErrAlreadyExists)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: product or user", domain.ErrNotFound)
		}
		return err
	}

	review.ID = id
	return nil
}

// GetByID retrieves a review by ID with its author projection
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	rid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var row reviewRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(reviewSelect+` WHERE r.id = ?`), rid); err != nil {
		return nil, mapNoRows(err)
	}

	return row.toDomain(), nil
}

// FindByUserAndProduct returns the user's review of a product
func (r *ReviewRepository) FindByUserAndProduct(ctx context.Context, userID, productID string) (*domain.Review, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	pid, err := parseID(productID)
	if err != nil {
		return nil, err
	}

	var row reviewRow
	query := r.db.Rebind(reviewSelect + ` WHERE r.user_id = ? AND r.product_id = ?`)
	if err := r.db.GetContext(ctx, &row, query, uid, pid); err != nil {
		return nil, mapNoRows(err)
	}

	return row.toDomain(), nil
}

// GetByProductID retrieves reviews for a product with pagination, newest first
func (r *ReviewRepository) GetByProductID(ctx context.Context, productID string, limit, offset int) ([]*domain.Review, error) {
	pid, err := parseID(productID)
	if err != nil {
		return []*domain.Review{}, nil
	}

	query := r.db.Rebind(reviewSelect + `
		WHERE r.product_id = ?
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ? OFFSET ?`)

	var rows []reviewRow
	if err := r.db.SelectContext(ctx, &rows, query, pid, limit, offset); err != nil {
		return nil, err
	}

	return reviewsFromRows(rows), nil
}

// ListByStatus retrieves all reviews in the given moderation state, oldest first
func (r *ReviewRepository) ListByStatus(ctx context.Context, status string) ([]*domain.Review, error) {
	query := r.db.Rebind(reviewSelect + ` WHERE r.status = ? ORDER BY r.created_at ASC, r.id ASC`)

	var rows []reviewRow
	if err := r.db.SelectContext(ctx, &rows, query, status); err != nil {
		return nil, err
	}

	return reviewsFromRows(rows), nil
}

// Update updates rating, comment and status of an existing review
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	rid, err := parseID(review.ID)
	if err != nil {
		return err
	}

	review.UpdatedAt = time.Now().UTC()

	query := r.db.Rebind(`
		UPDATE reviews
		SET rating = ?, comment = ?, status = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, review.Rating, review.Comment, review.Status, review.UpdatedAt, rid)
	if err != nil {
		return err
	}

	return requireAffected(result, domain.ErrNotFound)
}

// Delete removes a review
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	rid, err := parseID(id)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM reviews WHERE id = ?`), rid)
	if err != nil {
		return err
	}

	return requireAffected(result, domain.ErrNotFound)
}

// CountByProductID returns the total number of reviews for a product
func (r *ReviewRepository) CountByProductID(ctx context.Context, productID string) (int, error) {
	pid, err := parseID(productID)
	if err != nil {
		return 0, nil
	}

	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM reviews WHERE product_id = ?`)
	if err := r.db.GetContext(ctx, &count, query, pid); err != nil {
		return 0, err
	}

	return count, nil
}
