package domain

import (
	"context"
	"time"
)

// Notification is a message addressed to a single user
type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id" validate:"required"`
	Type      string    `json:"type" db:"type" validate:"required,max=50"`
	Title     string    `json:"title" db:"title" validate:"required,max=255"`
	Message   string    `json:"message" db:"message" validate:"max=2000"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create creates a new notification
	Create(ctx context.Context, notification *Notification) error

	// ListByUser retrieves a user's notifications, newest first
	ListByUser(ctx context.Context, userID string) ([]*Notification, error)

	// CountUnread returns how many of the user's notifications are unread
	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead flags one of the user's notifications as read
	MarkRead(ctx context.Context, id, userID string) (*Notification, error)

	// MarkAllRead flags every unread notification of the user as read
	MarkAllRead(ctx context.Context, userID string) error

	// Delete removes one of the user's notifications
	Delete(ctx context.Context, id, userID string) error

	// DeleteAll removes every notification of the user
	DeleteAll(ctx context.Context, userID string) error
}
