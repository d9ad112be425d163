package domain

import "time"

// Review event types
const (
	EventReviewCreated       = "review.created"
	EventReviewUpdated       = "review.updated"
	EventReviewDeleted       = "review.deleted"
	EventReviewStatusChanged = "review.status_changed"
)

// ReviewEvent is published after every review write. Consumers refresh the
// product rating from the event's ProductID and notify authors of
// moderation changes.
type ReviewEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	ProductID string    `json:"product_id"`
	Review    *Review   `json:"review"`
}
