package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/pkg/validator"
)

// ErrHasProducts is returned when deleting a category that products still reference
var ErrHasProducts = fmt.Errorf("%w: Cannot delete category with existing products", domain.ErrConstraint)

// ProductCounter reports how many products reference a category
type ProductCounter interface {
	CountByCategory(ctx context.Context, categoryID string) (int, error)
}

// Input carries the writable fields of a category. Slug is derived from
// Name when empty.
type Input struct {
	Name        string
	Slug        string
	Description string
	ParentID    *string
}

// Service guards category integrity: unique slugs, an acyclic parent tree
// and no deletion while products reference the category
type Service struct {
	repo     domain.CategoryRepository
	products ProductCounter
	logger   *logger.Logger
}

// NewService creates a new category service
func NewService(repo domain.CategoryRepository, products ProductCounter, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		products: products,
		logger:   log,
	}
}

// List returns all categories ordered by name
func (s *Service) List(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", err)
		return nil, err
	}
	return categories, nil
}

// GetByID retrieves a category by ID
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logIfUnexpected("Failed to get category", err)
		return nil, err
	}
	return category, nil
}

// GetBySlug retrieves a category by slug
func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	category, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		s.logIfUnexpected("Failed to get category by slug", err)
		return nil, err
	}
	return category, nil
}

// Create creates a new category
func (s *Service) Create(ctx context.Context, in Input) (*domain.Category, error) {
	category := &domain.Category{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		ParentID:    normalizeParent(in.ParentID),
	}
	if category.Slug == "" {
		category.Slug = domain.Slugify(category.Name)
	}

	if err := validator.Get().Struct(category); err != nil {
		s.logger.Warnf("Category validation failed: %s", validator.Describe(err))
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, validator.Describe(err))
	}

	if err := s.checkSlug(ctx, category.Slug, ""); err != nil {
		return nil, err
	}
	if category.ParentID != nil {
		if err := domain.CheckAncestry(ctx, "", *category.ParentID, s.parentOf); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, category); err != nil {
		s.logIfUnexpected("Failed to create category", err)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"category_id": category.ID,
		"slug":        category.Slug,
	}).Info("Category created successfully")

	return category, nil
}

// Update applies the supplied fields of a category. The slug is re-checked
// only when it changes and the parent chain only when the parent changes.
func (s *Service) Update(ctx context.Context, id string, patch domain.CategoryPatch) (*domain.Category, error) {
	category, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldSlug := category.Slug
	oldParent := category.ParentID
	patch.Apply(category)

	if err := validator.Get().Struct(category); err != nil {
		s.logger.Warnf("Category validation failed: %s", validator.Describe(err))
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, validator.Describe(err))
	}

	if category.Slug != oldSlug {
		if err := s.checkSlug(ctx, category.Slug, id); err != nil {
			return nil, err
		}
	}
	if category.ParentID != nil && (oldParent == nil || *oldParent != *category.ParentID) {
		if err := domain.CheckAncestry(ctx, id, *category.ParentID, s.parentOf); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, category); err != nil {
		s.logIfUnexpected("Failed to update category", err)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"category_id": category.ID,
		"slug":        category.Slug,
	}).Info("Category updated successfully")

	return category, nil
}

// Delete removes a category that no product references
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		s.logger.Error("Failed to count category products", err)
		return err
	}
	if count > 0 {
		return ErrHasProducts
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		// a product inserted after the count still trips the foreign key
		if errors.Is(err, domain.ErrConstraint) {
			return ErrHasProducts
		}
		s.logIfUnexpected("Failed to delete category", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"category_id": id,
	}).Info("Category deleted successfully")

	return nil
}

func (s *Service) checkSlug(ctx context.Context, slug, excludeID string) error {
	taken, err := s.repo.SlugTaken(ctx, slug, excludeID)
	if err != nil {
		s.logger.Error("Failed to check category slug", err)
		return err
	}
	if taken {
		return fmt.Errorf("%w: category slug %q", domain.ErrAlreadyExists, slug)
	}
	return nil
}

func (s *Service) parentOf(ctx context.Context, id string) (*string, bool, error) {
	category, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return category.ParentID, true, nil
}

func (s *Service) logIfUnexpected(msg string, err error) {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyExists) || errors.Is(err, domain.ErrConstraint) {
		return
	}
	s.logger.Error(msg, err)
}

func normalizeParent(parentID *string) *string {
	if parentID == nil || *parentID == "" {
		return nil
	}
	return parentID
}
