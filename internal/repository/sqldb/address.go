package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

const addressColumns = `id, user_id, type, street, city, state, country, postal_code, is_default,
	created_at, updated_at`

// AddressRepository implements domain.AddressRepository
type AddressRepository struct {
	db *sqlx.DB
}

// NewAddressRepository creates a new address repository
func NewAddressRepository(db *sqlx.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

// Create creates a new, non-default address
func (r *AddressRepository) Create(ctx context.Context, address *domain.Address) error {
	uid, err := parseID(address.UserID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	address.IsDefault = false
	address.CreatedAt = now
	address.UpdatedAt = now

	id, err := insert(ctx, r.db, `
		INSERT INTO addresses (user_id, type, street, city, state, country, postal_code, is_default,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uid, address.Type, address.Street, address.City, address.State, address.Country,
		address.PostalCode, address.IsDefault, address.CreatedAt, address.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return err
	}

	address.ID = id
	return nil
}

// GetForUser retrieves an address owned by userID
func (r *AddressRepository) GetForUser(ctx context.Context, id, userID string) (*domain.Address, error) {
	aid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	var address domain.Address
	query := r.db.Rebind(`SELECT ` + addressColumns + ` FROM addresses WHERE id = ? AND user_id = ?`)
	if err := r.db.GetContext(ctx, &address, query, aid, uid); err != nil {
		return nil, mapNoRows(err)
	}

	return &address, nil
}

// ListByUser retrieves a user's addresses, defaults first then newest
func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Address, error) {
	uid, err := parseID(userID)
	if err != nil {
		return []*domain.Address{}, nil
	}

	addresses := []*domain.Address{}
	query := r.db.Rebind(`SELECT ` + addressColumns + ` FROM addresses
		WHERE user_id = ?
		ORDER BY is_default DESC, created_at DESC, id DESC`)
	if err := r.db.SelectContext(ctx, &addresses, query, uid); err != nil {
		return nil, err
	}

	return addresses, nil
}

// Update updates the postal fields and type of an address. Moving a default
// address to another type drops its default flag, so the target type never
// ends up with two defaults.
func (r *AddressRepository) Update(ctx context.Context, address *domain.Address) error {
	aid, err := parseID(address.ID)
	if err != nil {
		return err
	}
	uid, err := parseID(address.UserID)
	if err != nil {
		return err
	}

	address.UpdatedAt = time.Now().UTC()

	// is_default is assigned first: MySQL evaluates SET left to right
	query := r.db.Rebind(`
		UPDATE addresses
		SET is_default = CASE WHEN type = ? THEN is_default ELSE FALSE END,
			type = ?, street = ?, city = ?, state = ?, country = ?, postal_code = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		address.Type, address.Type, address.Street, address.City, address.State, address.Country,
		address.PostalCode, address.UpdatedAt, aid, uid,
	)
	if err != nil {
		return err
	}
	if err := requireAffected(result, domain.ErrNotFound); err != nil {
		return err
	}

	var isDefault bool
	err = r.db.GetContext(ctx, &isDefault, r.db.Rebind(`SELECT is_default FROM addresses WHERE id = ?`), aid)
	if err != nil {
		return mapNoRows(err)
	}
	address.IsDefault = isDefault
	return nil
}

// Delete removes an address owned by userID
func (r *AddressRepository) Delete(ctx context.Context, id, userID string) error {
	aid, err := parseID(id)
	if err != nil {
		return err
	}
	uid, err := parseID(userID)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM addresses WHERE id = ? AND user_id = ?`), aid, uid)
	if err != nil {
		return err
	}

	return requireAffected(result, domain.ErrNotFound)
}

// SetDefault flags id as the only default among the owner's addresses of
// addressType. The flip is one UPDATE, so no reader sees zero or two
// defaults; the ownership check shares its transaction.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, addressType, id string) error {
	aid, err := parseID(id)
	if err != nil {
		return err
	}
	uid, err := parseID(userID)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var owned int
	err = tx.GetContext(ctx, &owned, tx.Rebind(`
		SELECT COUNT(*) FROM addresses WHERE id = ? AND user_id = ? AND type = ?`),
		aid, uid, addressType)
	if err != nil {
		return err
	}
	if owned == 0 {
		return domain.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE addresses
		SET is_default = CASE WHEN id = ? THEN TRUE ELSE FALSE END, updated_at = ?
		WHERE user_id = ? AND type = ?`),
		aid, time.Now().UTC(), uid, addressType)
	if err != nil {
		return err
	}

	return tx.Commit()
}
