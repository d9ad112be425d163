package sqldb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

const productColumns = `id, name, description, price, image, category_id, quantity, in_stock,
	featured, rating, review_count, version, created_at, updated_at`

// ProductRepository implements domain.ProductRepository
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	categoryID, err := parseID(product.CategoryID)
	if err != nil {
		return fmt.Errorf("%w: category", domain.ErrNotFound)
	}

	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.Rating = 0
	product.ReviewCount = 0
	product.Version = 1

	id, err := insert(ctx, r.db, `
		INSERT INTO products (name, description, price, image, category_id, quantity, in_stock,
			featured, rating, review_count, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.Name, product.Description, product.Price, product.Image, categoryID,
		product.Quantity, product.InStock, product.Featured, product.Rating,
		product.ReviewCount, product.Version, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: category", domain.ErrNotFound)
		}
		return err
	}

	product.ID = id
	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	pid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	query := r.db.Rebind(`SELECT ` + productColumns + ` FROM products WHERE id = ?`)

	var product domain.Product
	if err := r.db.GetContext(ctx, &product, query, pid); err != nil {
		return nil, mapNoRows(err)
	}

	return &product, nil
}

func productWhere(filter domain.ProductFilter) (string, []interface{}, error) {
	var clauses []string
	var args []interface{}

	if filter.CategoryID != "" {
		categoryID, err := parseID(filter.CategoryID)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, "category_id = ?")
		args = append(args, categoryID)
	}
	if filter.Featured != nil {
		clauses = append(clauses, "featured = ?")
		args = append(args, *filter.Featured)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		clauses = append(clauses, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, pattern, pattern)
	}

	if len(clauses) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// List retrieves a paginated, filtered list of products, newest first
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter, limit, offset int) ([]*domain.Product, error) {
	where, args, err := productWhere(filter)
	if err != nil {
		return []*domain.Product{}, nil
	}

	query := r.db.Rebind(`SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	args = append(args, limit, offset)

	products := []*domain.Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}

	return products, nil
}

// Count returns the number of products matching filter
func (r *ProductRepository) Count(ctx context.Context, filter domain.ProductFilter) (int, error) {
	where, args, err := productWhere(filter)
	if err != nil {
		return 0, nil
	}

	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM products`+where), args...); err != nil {
		return 0, err
	}

	return count, nil
}

// Update updates an existing product's catalog fields
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	pid, err := parseID(product.ID)
	if err != nil {
		return err
	}
	categoryID, err := parseID(product.CategoryID)
	if err != nil {
		return fmt.Errorf("%w: category", domain.ErrNotFound)
	}

	product.UpdatedAt = time.Now().UTC()

	query := r.db.Rebind(`
		UPDATE products
		SET name = ?, description = ?, price = ?, image = ?, category_id = ?, quantity = ?,
			in_stock = ?, featured = ?, updated_at = ?, version = version + 1
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		product.Name, product.Description, product.Price, product.Image, categoryID,
		product.Quantity, product.InStock, product.Featured, product.UpdatedAt, pid,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: category", domain.ErrNotFound)
		}
		return err
	}
	if err := requireAffected(result, domain.ErrNotFound); err != nil {
		return err
	}

	product.Version++
	return nil
}

// Delete removes a product; its reviews go with it
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	pid, err := parseID(id)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), pid)
	if err != nil {
		return err
	}

	return requireAffected(result, domain.ErrNotFound)
}

// CountByCategory returns how many products reference a category
func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	cid, err := parseID(categoryID)
	if err != nil {
		return 0, nil
	}

	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM products WHERE category_id = ?`)
	if err := r.db.GetContext(ctx, &count, query, cid); err != nil {
		return 0, err
	}

	return count, nil
}

// RefreshRating recomputes rating and review_count from the product's
// review set in a single UPDATE, then reads back what was stored
func (r *ProductRepository) RefreshRating(ctx context.Context, productID string) (domain.RatingSummary, error) {
	pid, err := parseID(productID)
	if err != nil {
		return domain.RatingSummary{}, err
	}

	query := r.db.Rebind(`
		UPDATE products
		SET
			rating = COALESCE((SELECT AVG(rv.rating) FROM reviews rv WHERE rv.product_id = ?), 0),
			review_count = (SELECT COUNT(*) FROM reviews rv WHERE rv.product_id = ?),
			updated_at = ?,
			version = version + 1
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, pid, pid, time.Now().UTC(), pid)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("failed to update product rating: %w", err)
	}
	if err := requireAffected(result, domain.ErrNotFound); err != nil {
		return domain.RatingSummary{}, err
	}

	var summary domain.RatingSummary
	err = r.db.QueryRowxContext(ctx,
		r.db.Rebind(`SELECT rating, review_count FROM products WHERE id = ?`), pid,
	).Scan(&summary.Rating, &summary.ReviewCount)
	if err != nil {
		return domain.RatingSummary{}, mapNoRows(err)
	}

	return summary, nil
}
