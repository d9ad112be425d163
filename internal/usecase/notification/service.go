package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/pkg/validator"
)

// TypeReviewStatus marks notifications about a review being moderated
const TypeReviewStatus = "review_status"

// Service handles a user's notifications
type Service struct {
	repo   domain.NotificationRepository
	logger *logger.Logger
}

// NewService creates a new notification service
func NewService(repo domain.NotificationRepository, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: log,
	}
}

// List returns the user's notifications, newest first
func (s *Service) List(ctx context.Context, userID string) ([]*domain.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list notifications", err)
		return nil, err
	}
	return notifications, nil
}

// UnreadCount returns how many of the user's notifications are unread
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to count unread notifications", err)
		return 0, err
	}
	return count, nil
}

// MarkRead flags one of the user's notifications as read
func (s *Service) MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error) {
	n, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return nil, s.notFoundOr("Failed to mark notification read", err)
	}
	return n, nil
}

// MarkAllRead flags all of the user's notifications as read
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		s.logger.Error("Failed to mark all notifications read", err)
		return err
	}
	return nil
}

// Delete removes one of the user's notifications
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return s.notFoundOr("Failed to delete notification", err)
	}
	return nil
}

// DeleteAll removes all of the user's notifications
func (s *Service) DeleteAll(ctx context.Context, userID string) error {
	if err := s.repo.DeleteAll(ctx, userID); err != nil {
		s.logger.Error("Failed to delete notifications", err)
		return err
	}
	return nil
}

// Notify stores a new notification for a user
func (s *Service) Notify(ctx context.Context, n *domain.Notification) error {
	if err := validator.Get().Struct(n); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, validator.Describe(err))
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to create notification", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"notification_id": n.ID,
		"user_id":         n.UserID,
		"type":            n.Type,
	}).Info("Notification created")

	return nil
}

// ReviewStatusChanged tells a review's author about a moderation decision
func (s *Service) ReviewStatusChanged(ctx context.Context, review *domain.Review) error {
	if review == nil || review.UserID == "" {
		return fmt.Errorf("%w: review author is required", domain.ErrInvalidInput)
	}

	return s.Notify(ctx, &domain.Notification{
		UserID:  review.UserID,
		Type:    TypeReviewStatus,
		Title:   fmt.Sprintf("Your review was %s", review.Status),
		Message: fmt.Sprintf("Your %d-star review is now %s.", review.Rating, review.Status),
	})
}

func (s *Service) notFoundOr(msg string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: notification", domain.ErrNotFound)
	}
	s.logger.Error(msg, err)
	return err
}
