package user

import (
	"context"
	"errors"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
)

// RatingRefresher recomputes a product's rating and review count
type RatingRefresher interface {
	RefreshRating(ctx context.Context, productID string) (domain.RatingSummary, error)
}

// Cache drops cached product pages whose ratings changed
type Cache interface {
	InvalidateProductAndReviews(ctx context.Context, productID string) error
}

// Service handles admin user management
type Service struct {
	repo    domain.UserRepository
	ratings RatingRefresher
	cache   Cache
	logger  *logger.Logger
}

// NewService creates a new user service
func NewService(repo domain.UserRepository, ratings RatingRefresher, cache Cache, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		ratings: ratings,
		cache:   cache,
		logger:  log,
	}
}

// List returns all users, newest first
func (s *Service) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list users", err)
		return nil, err
	}
	return users, nil
}

// Delete removes a user with everything the user owns, then refreshes the
// ratings of every product the user had reviewed
func (s *Service) Delete(ctx context.Context, id string) error {
	productIDs, err := s.repo.Delete(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to delete user", err)
		}
		return err
	}

	for _, productID := range productIDs {
		if _, err := s.ratings.RefreshRating(ctx, productID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Errorf(err, "Failed to refresh rating for product %s", productID)
		}
		if err := s.cache.InvalidateProductAndReviews(ctx, productID); err != nil {
			s.logger.Warnf("Failed to invalidate cache for product %s: %v", productID, err)
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":           id,
		"affected_products": len(productIDs),
	}).Info("User deleted successfully")

	return nil
}
