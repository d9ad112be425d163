package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/pkg/metrics"
)

// RatingStore recomputes and persists a product's rating summary
type RatingStore interface {
	RefreshRating(ctx context.Context, productID string) (domain.RatingSummary, error)
}

// CacheInvalidator drops cached product data
type CacheInvalidator interface {
	InvalidateProductAndReviews(ctx context.Context, productID string) error
}

// Reconciler writes the approved-review average back onto a product and
// drops the stale cache entries
type Reconciler struct {
	store  RatingStore
	cache  CacheInvalidator
	logger *logger.Logger
}

// NewReconciler creates a reconciler. cache may be nil.
func NewReconciler(store RatingStore, cache CacheInvalidator, log *logger.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		cache:  cache,
		logger: log,
	}
}

// Refresh recomputes the rating of productID. A product deleted since the
// event was published is skipped.
func (r *Reconciler) Refresh(ctx context.Context, productID string) error {
	start := time.Now()
	summary, err := r.store.RefreshRating(ctx, productID)
	metrics.RatingRefreshDuration.Observe(time.Since(start).Seconds())

	if errors.Is(err, domain.ErrNotFound) {
		r.logger.With("product_id", productID).Info("Product no longer exists, skipping rating refresh")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to refresh rating: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.InvalidateProductAndReviews(ctx, productID); err != nil {
			r.logger.With("product_id", productID).Error("Failed to invalidate cache after rating refresh", err)
		}
	}

	r.logger.WithFields(map[string]any{
		"product_id":   productID,
		"rating":       summary.Rating,
		"review_count": summary.ReviewCount,
	}).Info("Product rating updated")

	return nil
}
