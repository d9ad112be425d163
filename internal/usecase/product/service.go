package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/pkg/metrics"
	"github.com/Pesokrava/jewelry_store/internal/pkg/validator"
)

// CategoryReader resolves the category a product belongs to
type CategoryReader interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
}

// Cache is the part of the Redis cache the product service uses
type Cache interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	SetProduct(ctx context.Context, product *domain.Product) error
	InvalidateProduct(ctx context.Context, productID string) error
	InvalidateProductAndReviews(ctx context.Context, productID string) error
}

// Query narrows a product listing. Category may be a slug or an id.
type Query struct {
	Category string
	Featured *bool
	Search   string
}

// Input carries the writable catalog fields of a product. InStock defaults
// to true when nil.
type Input struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	CategoryID  string
	Quantity    int
	InStock     *bool
	Featured    bool
}

// Service handles product business logic
type Service struct {
	repo       domain.ProductRepository
	categories CategoryReader
	cache      Cache
	logger     *logger.Logger
}

// NewService creates a new product service
func NewService(repo domain.ProductRepository, categories CategoryReader, cache Cache, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		cache:      cache,
		logger:     log,
	}
}

// Create creates a new product
func (s *Service) Create(ctx context.Context, in Input) (*domain.Product, error) {
	product := &domain.Product{InStock: true}
	apply(product, in)

	if err := s.check(ctx, product); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.logIfUnexpected("Failed to create product", err)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("Product created successfully")

	return product, nil
}

// GetByID retrieves a product with its category, through the cache
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if product, err := s.cache.GetProduct(ctx, id); err == nil {
		metrics.CacheHit("product")
		s.logger.Debugf("Cache hit for product %s", id)
		return product, nil
	}
	metrics.CacheMiss("product")

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Product not found: %s", id)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, err
	}

	category, err := s.categories.GetByID(ctx, product.CategoryID)
	switch {
	case err == nil:
		product.Category = category
	case !errors.Is(err, domain.ErrNotFound):
		s.logger.Warnf("Failed to load category %s of product %s: %v", product.CategoryID, id, err)
	}

	if err := s.cache.SetProduct(ctx, product); err != nil {
		s.logger.Warnf("Failed to cache product %s: %v", id, err)
	}

	return product, nil
}

// List retrieves a filtered, paginated list of products, newest first
func (s *Service) List(ctx context.Context, q Query, limit, offset int) ([]*domain.Product, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	filter := domain.ProductFilter{Featured: q.Featured, Search: q.Search}
	if q.Category != "" {
		categoryID, err := s.resolveCategory(ctx, q.Category)
		if errors.Is(err, domain.ErrNotFound) {
			return []*domain.Product{}, 0, nil
		}
		if err != nil {
			return nil, 0, err
		}
		filter.CategoryID = categoryID
	}

	products, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list products", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	return products, total, nil
}

// Update replaces the catalog fields of a product
func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logIfUnexpected("Failed to get product", err)
		return nil, err
	}

	apply(product, in)
	if err := s.check(ctx, product); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		s.logIfUnexpected("Failed to update product", err)
		return nil, err
	}

	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %s: %v", id, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("Product updated successfully")

	return product, nil
}

// Delete removes a product together with its reviews
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logIfUnexpected("Failed to delete product", err)
		return err
	}

	if err := s.cache.InvalidateProductAndReviews(ctx, id); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %s: %v", id, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
	}).Info("Product deleted successfully")

	return nil
}

func apply(p *domain.Product, in Input) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Image = in.Image
	p.CategoryID = in.CategoryID
	p.Quantity = in.Quantity
	p.Featured = in.Featured
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
}

// check validates the product and requires its category to exist
func (s *Service) check(ctx context.Context, product *domain.Product) error {
	if err := validator.Get().Struct(product); err != nil {
		s.logger.Warnf("Product validation failed: %s", validator.Describe(err))
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, validator.Describe(err))
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}

	if _, err := s.categories.GetByID(ctx, product.CategoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: category", domain.ErrNotFound)
		}
		s.logger.Error("Failed to look up product category", err)
		return err
	}
	return nil
}

func (s *Service) resolveCategory(ctx context.Context, ref string) (string, error) {
	category, err := s.categories.GetBySlug(ctx, ref)
	if err == nil {
		return category.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Error("Failed to resolve category", err)
		return "", err
	}

	category, err = s.categories.GetByID(ctx, ref)
	if err != nil {
		return "", err
	}
	return category.ID, nil
}

func (s *Service) logIfUnexpected(msg string, err error) {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
		return
	}
	s.logger.Error(msg, err)
}
