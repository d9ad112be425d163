package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
)

// StatusNotifier records a moderation notification for a review's author
type StatusNotifier interface {
	ReviewStatusChanged(ctx context.Context, review *domain.Review) error
}

// Notifier turns review status changes into user notifications
type Notifier struct {
	notifications StatusNotifier
	logger        *logger.Logger
}

// NewNotifier creates a notifier
func NewNotifier(notifications StatusNotifier, log *logger.Logger) *Notifier {
	return &Notifier{
		notifications: notifications,
		logger:        log,
	}
}

// HandleEvent notifies the author of a moderated review. Other event types
// and malformed payloads are acknowledged without action; storage failures
// are returned for redelivery.
func (n *Notifier) HandleEvent(ctx context.Context, data []byte) error {
	var event domain.ReviewEvent
	if err := json.Unmarshal(data, &event); err != nil {
		n.logger.Error("Discarding malformed review event", err)
		return nil
	}

	if event.EventType != domain.EventReviewStatusChanged {
		return nil
	}

	log := n.logger.WithFields(map[string]any{
		"event_id":   event.EventID,
		"product_id": event.ProductID,
	})

	err := n.notifications.ReviewStatusChanged(ctx, event.Review)
	if errors.Is(err, domain.ErrInvalidInput) {
		log.Error("Discarding review event without author", err)
		return nil
	}
	if err != nil {
		return err
	}

	log.With("user_id", event.Review.UserID).Info("Review status notification created")
	return nil
}
