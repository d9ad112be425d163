package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/pkg/metrics"
)

const (
	maxAttempts    = 3
	initialBackoff = 10 * time.Millisecond
)

// Service handles cart business logic. Every mutation is a read, an
// in-memory change on domain.Cart and a versioned save; a save that loses
// the race is replayed against the fresh cart.
type Service struct {
	repo        domain.CartRepository
	logger      *logger.Logger
	maxAttempts int
	backoff     time.Duration
}

// NewService creates a new cart service
func NewService(repo domain.CartRepository, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		logger:      log,
		maxAttempts: maxAttempts,
		backoff:     initialBackoff,
	}
}

// Get returns the user's cart, creating an empty one on first use
func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to get or create cart", err)
		return nil, err
	}
	return cart, nil
}

// AddItem merges quantity of product into the user's cart
func (s *Service) AddItem(ctx context.Context, userID string, product domain.ProductSnapshot, quantity int) (*domain.Cart, error) {
	if product.ID == "" {
		return nil, fmt.Errorf("%w: product is required", domain.ErrInvalidInput)
	}

	return s.mutate(ctx, userID, "add_item", s.repo.GetOrCreate, func(cart *domain.Cart) error {
		return cart.AddItem(product, quantity)
	})
}

// UpdateItem sets the quantity of a product already in the cart
func (s *Service) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput)
	}

	return s.mutate(ctx, userID, "update_item", s.existing, func(cart *domain.Cart) error {
		return cart.SetQuantity(productID, quantity)
	})
}

// RemoveItem drops a product from the cart
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, "remove_item", s.existing, func(cart *domain.Cart) error {
		return cart.RemoveItem(productID)
	})
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, "clear", s.existing, func(cart *domain.Cart) error {
		cart.Clear()
		return nil
	})
}

func (s *Service) existing(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: cart", domain.ErrNotFound)
	}
	return cart, err
}

type loadFunc func(ctx context.Context, userID string) (*domain.Cart, error)

// mutate loads the cart, applies change and saves it. On ErrConflict the
// whole cycle is retried with exponential backoff.
func (s *Service) mutate(ctx context.Context, userID, op string, load loadFunc, change func(*domain.Cart) error) (*domain.Cart, error) {
	backoff := s.backoff

	for attempt := 1; ; attempt++ {
		cart, err := load(ctx, userID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				s.logger.Error("Failed to load cart", err)
			}
			return nil, err
		}

		if err := change(cart); err != nil {
			return nil, err
		}

		err = s.repo.Save(ctx, cart)
		if err == nil {
			s.logger.WithFields(map[string]interface{}{
				"user_id":        userID,
				"operation":      op,
				"total_quantity": cart.TotalQuantity,
				"total_amount":   cart.TotalAmount.String(),
				"version":        cart.Version,
			}).Info("Cart updated successfully")
			return cart, nil
		}

		if !errors.Is(err, domain.ErrConflict) {
			s.logger.Error("Failed to save cart", err)
			return nil, err
		}

		metrics.CartConflicts.Inc()
		if attempt >= s.maxAttempts {
			s.logger.WithFields(map[string]interface{}{
				"user_id":   userID,
				"operation": op,
				"attempts":  attempt,
			}).Warn("Cart save kept conflicting, giving up")
			return nil, fmt.Errorf("%w: cart was modified concurrently", domain.ErrConflict)
		}

		s.logger.WithFields(map[string]interface{}{
			"user_id":    userID,
			"operation":  op,
			"attempt":    attempt,
			"backoff_ms": backoff.Milliseconds(),
		}).Debug("Cart version moved, retrying")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
}
