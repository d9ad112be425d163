package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/pkg/metrics"
	"github.com/Pesokrava/jewelry_store/internal/pkg/validator"
	"github.com/Pesokrava/jewelry_store/internal/repository/cache"
)

const eventsSubject = "reviews.events"

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// RatingRefresher recomputes a product's rating and review count
type RatingRefresher interface {
	RefreshRating(ctx context.Context, productID string) (domain.RatingSummary, error)
}

// Cache is the part of the Redis cache the review service reads and invalidates
type Cache interface {
	GetReviewsPage(ctx context.Context, productID string, limit, offset int) (*cache.ReviewPage, error)
	SetReviewsPage(ctx context.Context, productID string, limit, offset int, page *cache.ReviewPage) error
	InvalidateProductAndReviews(ctx context.Context, productID string) error
}

// Service handles review business logic with caching and event publishing
type Service struct {
	repo      domain.ReviewRepository
	ratings   RatingRefresher
	cache     Cache
	publisher EventPublisher
	logger    *logger.Logger
	inflight  sync.WaitGroup
}

// NewService creates a new review service
func NewService(
	repo domain.ReviewRepository,
	ratings RatingRefresher,
	cache Cache,
	publisher EventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		ratings:   ratings,
		cache:     cache,
		publisher: publisher,
		logger:    log,
	}
}

// Create creates a review of productID by userID and refreshes the
// product's rating
func (s *Service) Create(ctx context.Context, userID, productID string, rating int, comment string) (*domain.Review, error) {
	review := &domain.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		Status:    domain.ReviewPending,
	}

	if err := validator.Get().Struct(review); err != nil {
		s.logger.Warnf("Review validation failed: %s", validator.Describe(err))
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, validator.Describe(err))
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Error("Failed to create review", err)
		}
		return nil, err
	}

	s.refreshRating(ctx, productID)
	review = s.reload(ctx, review)
	s.afterWrite(ctx, domain.EventReviewCreated, review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  review.ID,
		"product_id": review.ProductID,
		"rating":     review.Rating,
	}).Info("Review created successfully")

	return review, nil
}

// GetByID retrieves a review by ID
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Review not found: %s", id)
		} else {
			s.logger.Error("Failed to get review", err)
		}
		return nil, err
	}

	return review, nil
}

// ListByProduct retrieves a page of a product's reviews, newest first, with caching
func (s *Service) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*domain.Review, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	page, err := s.cache.GetReviewsPage(ctx, productID, limit, offset)
	if err == nil {
		metrics.CacheHit("reviews")
		s.logger.Debugf("Cache hit for product %s reviews (limit=%d, offset=%d)", productID, limit, offset)
		return page.Reviews, page.Total, nil
	}
	metrics.CacheMiss("reviews")

	reviews, err := s.repo.GetByProductID(ctx, productID, limit, offset)
	if err != nil {
		s.logger.Error("Failed to get reviews by product ID", err)
		return nil, 0, err
	}

	total, err := s.repo.CountByProductID(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to count reviews", err)
		return nil, 0, err
	}

	if err := s.cache.SetReviewsPage(ctx, productID, limit, offset, &cache.ReviewPage{Reviews: reviews, Total: total}); err != nil {
		s.logger.Warnf("Failed to cache reviews for product %s (limit=%d, offset=%d): %v", productID, limit, offset, err)
	}

	return reviews, total, nil
}

// Update applies patch to a review owned by requesterID
func (s *Service) Update(ctx context.Context, id, requesterID string, patch domain.ReviewPatch) (*domain.Review, error) {
	if patch.Rating != nil && (*patch.Rating < 1 || *patch.Rating > 5) {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrInvalidInput)
	}

	review, err := s.owned(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	patch.Apply(review)
	if err := validator.Get().Struct(review); err != nil {
		s.logger.Warnf("Review validation failed: %s", validator.Describe(err))
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, validator.Describe(err))
	}

	if err := s.repo.Update(ctx, review); err != nil {
		s.logger.Error("Failed to update review", err)
		return nil, err
	}

	s.refreshRating(ctx, review.ProductID)
	review = s.reload(ctx, review)
	s.afterWrite(ctx, domain.EventReviewUpdated, review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  review.ID,
		"product_id": review.ProductID,
		"rating":     review.Rating,
	}).Info("Review updated successfully")

	return review, nil
}

// Delete removes a review owned by requesterID
func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	review, err := s.owned(ctx, id, requesterID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete review", err)
		return err
	}

	s.refreshRating(ctx, review.ProductID)
	s.afterWrite(ctx, domain.EventReviewDeleted, review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  id,
		"product_id": review.ProductID,
	}).Info("Review deleted successfully")

	return nil
}

// ListPending returns the moderation queue, oldest first
func (s *Service) ListPending(ctx context.Context) ([]*domain.Review, error) {
	reviews, err := s.repo.ListByStatus(ctx, domain.ReviewPending)
	if err != nil {
		s.logger.Error("Failed to list pending reviews", err)
		return nil, err
	}
	return reviews, nil
}

// SetStatus approves or rejects a review
func (s *Service) SetStatus(ctx context.Context, id, status string) (*domain.Review, error) {
	if status != domain.ReviewApproved && status != domain.ReviewRejected {
		return nil, fmt.Errorf("%w: status must be %s or %s", domain.ErrInvalidInput, domain.ReviewApproved, domain.ReviewRejected)
	}

	review, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	review.Status = status
	if err := s.repo.Update(ctx, review); err != nil {
		s.logger.Error("Failed to update review status", err)
		return nil, err
	}

	s.afterWrite(ctx, domain.EventReviewStatusChanged, review)

	s.logger.WithFields(map[string]interface{}{
		"review_id": review.ID,
		"status":    status,
	}).Info("Review status changed")

	return review, nil
}

// Wait blocks until every event handed to the publisher has been sent
func (s *Service) Wait() {
	s.inflight.Wait()
}

func (s *Service) owned(ctx context.Context, id, requesterID string) (*domain.Review, error) {
	review, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != requesterID {
		s.logger.WithFields(map[string]interface{}{
			"review_id":    id,
			"requester_id": requesterID,
		}).Warn("Review ownership check failed")
		return nil, fmt.Errorf("%w: not the author of this review", domain.ErrForbidden)
	}
	return review, nil
}

// refreshRating recomputes the product summary inline. A failure is only
// logged; the rating worker re-runs the refresh from the published event.
func (s *Service) refreshRating(ctx context.Context, productID string) {
	summary, err := s.ratings.RefreshRating(ctx, productID)
	if err != nil {
		s.logger.Errorf(err, "Failed to refresh rating for product %s", productID)
		return
	}
	s.logger.WithFields(map[string]interface{}{
		"product_id":   productID,
		"rating":       summary.Rating,
		"review_count": summary.ReviewCount,
	}).Debug("Product rating refreshed")
}

// reload re-reads a written review to pick up its author projection
func (s *Service) reload(ctx context.Context, review *domain.Review) *domain.Review {
	fresh, err := s.repo.GetByID(ctx, review.ID)
	if err != nil {
		s.logger.Warnf("Failed to reload review %s: %v", review.ID, err)
		return review
	}
	return fresh
}

func (s *Service) afterWrite(ctx context.Context, eventType string, review *domain.Review) {
	// Stale cache would show incorrect ratings and review lists
	if err := s.cache.InvalidateProductAndReviews(ctx, review.ProductID); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %s: %v", review.ProductID, err)
	}
	s.publishEvent(eventType, review)
}

// publishEvent publishes a review event without blocking the request
func (s *Service) publishEvent(eventType string, review *domain.Review) {
	event := domain.ReviewEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		ProductID: review.ProductID,
		Review:    review,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for review %s", review.ID)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, eventsSubject, data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for review %s", review.ID)
		}
	}()
}
