package sqldb

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

const userColumns = `id, name, email, role, is_active, created_at`

// UserRepository implements domain.UserRepository. Accounts are written by
// the auth service; this side only reads and removes them.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var user domain.User
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := r.db.GetContext(ctx, &user, query, uid); err != nil {
		return nil, mapNoRows(err)
	}

	return &user, nil
}

// List retrieves all users, newest first
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	users := []*domain.User{}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, err
	}

	return users, nil
}

// Delete removes a user. Carts, reviews, addresses and notifications go
// with it through ON DELETE CASCADE; the products the user had reviewed are
// returned so their ratings can be refreshed.
func (r *UserRepository) Delete(ctx context.Context, id string) ([]string, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var productIDs []string
	err = tx.SelectContext(ctx, &productIDs,
		tx.Rebind(`SELECT DISTINCT product_id FROM reviews WHERE user_id = ?`), uid)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), uid)
	if err != nil {
		return nil, err
	}
	if err := requireAffected(result, domain.ErrNotFound); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return productIDs, nil
}
