package sqldb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

// cartRow is the stored shape of a cart; items are a JSON array
type cartRow struct {
	ID            string          `db:"id"`
	UserID        string          `db:"user_id"`
	Items         string          `db:"items"`
	TotalQuantity int             `db:"total_quantity"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	Version       int             `db:"version"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (row *cartRow) toDomain() (*domain.Cart, error) {
	cart := &domain.Cart{
		ID:            row.ID,
		UserID:        row.UserID,
		Items:         []domain.CartItem{},
		TotalQuantity: row.TotalQuantity,
		TotalAmount:   row.TotalAmount,
		Version:       row.Version,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.Items != "" {
		if err := json.Unmarshal([]byte(row.Items), &cart.Items); err != nil {
			return nil, fmt.Errorf("failed to decode cart %s items: %w", row.ID, err)
		}
	}
	return cart, nil
}

// CartRepository implements domain.CartRepository
type CartRepository struct {
	db *sqlx.DB
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

// GetByUserID retrieves the user's cart
func (r *CartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	query := r.db.Rebind(`
		SELECT id, user_id, items, total_quantity, total_amount, version, created_at, updated_at
		FROM carts
		WHERE user_id = ?`)

	var row cartRow
	if err := r.db.GetContext(ctx, &row, query, uid); err != nil {
		return nil, mapNoRows(err)
	}

	return row.toDomain()
}

// GetOrCreate returns the user's cart, inserting an empty one if there is
// none. The unique user_id index decides concurrent inserts; the loser reads
// the winner's row.
func (r *CartRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	cart = domain.NewCart(userID)
	cart.Version = 1
	now := time.Now().UTC()
	cart.CreatedAt = now
	cart.UpdatedAt = now

	id, err := insert(ctx, r.db, `
		INSERT INTO carts (user_id, items, total_quantity, total_amount, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uid, "[]", 0, decimal.Zero, cart.Version, cart.CreatedAt, cart.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return r.GetByUserID(ctx, userID)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return nil, err
	}

	cart.ID = id
	return cart, nil
}

// Save writes items and totals if the stored version still equals
// cart.Version, and bumps it
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	uid, err := parseID(cart.UserID)
	if err != nil {
		return err
	}

	items, err := json.Marshal(cart.Items)
	if err != nil {
		return fmt.Errorf("failed to encode cart items: %w", err)
	}

	updatedAt := time.Now().UTC()
	query := r.db.Rebind(`
		UPDATE carts
		SET items = ?, total_quantity = ?, total_amount = ?, updated_at = ?, version = version + 1
		WHERE user_id = ? AND version = ?`)

	result, err := r.db.ExecContext(ctx, query,
		string(items), cart.TotalQuantity, cart.TotalAmount, updatedAt, uid, cart.Version,
	)
	if err != nil {
		return err
	}
	if err := requireAffected(result, domain.ErrConflict); err != nil {
		return err
	}

	cart.Version++
	cart.UpdatedAt = updatedAt
	return nil
}
