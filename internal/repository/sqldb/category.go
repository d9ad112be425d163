package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

const categoryColumns = `id, name, slug, description, parent_id, created_at, updated_at`

// CategoryRepository implements domain.CategoryRepository
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	parentID, err := nullableID(category.ParentID)
	if err != nil {
		return fmt.Errorf("%w: parent category", domain.ErrNotFound)
	}

	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	id, err := insert(ctx, r.db, `
		INSERT INTO categories (name, slug, description, parent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		category.Name, category.Slug, category.Description, parentID, category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category slug %q", domain.ErrAlreadyExists, category.Slug)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: parent category", domain.ErrNotFound)
		}
		return err
	}

	category.ID = id
	return nil
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	cid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var category domain.Category
	query := r.db.Rebind(`SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`)
	if err := r.db.GetContext(ctx, &category, query, cid); err != nil {
		return nil, mapNoRows(err)
	}

	return &category, nil
}

// GetBySlug retrieves a category by slug
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var category domain.Category
	query := r.db.Rebind(`SELECT ` + categoryColumns + ` FROM categories WHERE slug = ?`)
	if err := r.db.GetContext(ctx, &category, query, slug); err != nil {
		return nil, mapNoRows(err)
	}

	return &category, nil
}

// List retrieves all categories ordered by name
func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY name ASC, id ASC`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, err
	}

	return categories, nil
}

// SlugTaken reports whether a category other than excludeID uses slug
func (r *CategoryRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	query := `SELECT COUNT(*) FROM categories WHERE slug = ?`
	args := []interface{}{slug}
	if excludeID != "" {
		if cid, err := parseID(excludeID); err == nil {
			query += ` AND id <> ?`
			args = append(args, cid)
		}
	}

	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), args...); err != nil {
		return false, err
	}

	return count > 0, nil
}

// Update updates an existing category
func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	cid, err := parseID(category.ID)
	if err != nil {
		return err
	}
	parentID, err := nullableID(category.ParentID)
	if err != nil {
		return fmt.Errorf("%w: parent category", domain.ErrNotFound)
	}

	category.UpdatedAt = time.Now().UTC()

	query := r.db.Rebind(`
		UPDATE categories
		SET name = ?, slug = ?, description = ?, parent_id = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		category.Name, category.Slug, category.Description, parentID, category.UpdatedAt, cid,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category slug %q", domain.ErrAlreadyExists, category.Slug)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: parent category", domain.ErrNotFound)
		}
		return err
	}

	return requireAffected(result, domain.ErrNotFound)
}

// Delete removes a category. A product inserted after the caller's
// reference check still trips the foreign key and surfaces as ErrConstraint.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	cid, err := parseID(id)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM categories WHERE id = ?`), cid)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: category has products", domain.ErrConstraint)
		}
		return err
	}

	return requireAffected(result, domain.ErrNotFound)
}
