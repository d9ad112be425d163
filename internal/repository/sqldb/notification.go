package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

const notificationColumns = `id, user_id, type, title, message, is_read, created_at, updated_at`

// NotificationRepository implements domain.NotificationRepository
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create creates a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	uid, err := parseID(n.UserID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	n.IsRead = false
	n.CreatedAt = now
	n.UpdatedAt = now

	id, err := insert(ctx, r.db, `
		INSERT INTO notifications (user_id, type, title, message, is_read, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uid, n.Type, n.Title, n.Message, n.IsRead, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return err
	}

	n.ID = id
	return nil
}

// ListByUser retrieves a user's notifications, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	uid, err := parseID(userID)
	if err != nil {
		return []*domain.Notification{}, nil
	}

	notifications := []*domain.Notification{}
	query := r.db.Rebind(`SELECT ` + notificationColumns + ` FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`)
	if err := r.db.SelectContext(ctx, &notifications, query, uid); err != nil {
		return nil, err
	}

	return notifications, nil
}

// CountUnread returns how many of the user's notifications are unread
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	uid, err := parseID(userID)
	if err != nil {
		return 0, nil
	}

	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = ?`)
	if err := r.db.GetContext(ctx, &count, query, uid, false); err != nil {
		return 0, err
	}

	return count, nil
}

// MarkRead flags one of the user's notifications as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) (*domain.Notification, error) {
	nid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE notifications SET is_read = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		true, time.Now().UTC(), nid, uid)
	if err != nil {
		return nil, err
	}
	if err := requireAffected(result, domain.ErrNotFound); err != nil {
		return nil, err
	}

	var n domain.Notification
	query := r.db.Rebind(`SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`)
	if err := r.db.GetContext(ctx, &n, query, nid); err != nil {
		return nil, mapNoRows(err)
	}

	return &n, nil
}

// MarkAllRead flags every unread notification of the user as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	uid, err := parseID(userID)
	if err != nil {
		return nil
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE notifications SET is_read = ?, updated_at = ? WHERE user_id = ? AND is_read = ?`),
		true, time.Now().UTC(), uid, false)
	return err
}

// Delete removes one of the user's notifications
func (r *NotificationRepository) Delete(ctx context.Context, id, userID string) error {
	nid, err := parseID(id)
	if err != nil {
		return err
	}
	uid, err := parseID(userID)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM notifications WHERE id = ? AND user_id = ?`), nid, uid)
	if err != nil {
		return err
	}

	return requireAffected(result, domain.ErrNotFound)
}

// DeleteAll removes every notification of the user
func (r *NotificationRepository) DeleteAll(ctx context.Context, userID string) error {
	uid, err := parseID(userID)
	if err != nil {
		return nil
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM notifications WHERE user_id = ?`), uid)
	return err
}
