package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

type notificationDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Type      string             `bson:"type"`
	Title     string             `bson:"title"`
	Message   string             `bson:"message"`
	IsRead    bool               `bson:"is_read"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *notificationDocument) toDomain() *domain.Notification {
	return &domain.Notification{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		Type:      d.Type,
		Title:     d.Title,
		Message:   d.Message,
		IsRead:    d.IsRead,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// NotificationRepository implements domain.NotificationRepository
type NotificationRepository struct {
	notifications *mongo.Collection
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{notifications: db.Collection(notificationsCollection)}
}

// Create creates a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	uid, err := objectID(n.UserID)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := notificationDocument{
		ID:        primitive.NewObjectID(),
		UserID:    uid,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.notifications.InsertOne(ctx, doc); err != nil {
		return err
	}

	*n = *doc.toDomain()
	return nil
}

// ListByUser retrieves a user's notifications, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	uid, err := objectID(userID)
	if err != nil {
		return []*domain.Notification{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.notifications.Find(ctx, bson.M{"user_id": uid}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []notificationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	notifications := make([]*domain.Notification, 0, len(docs))
	for i := range docs {
		notifications = append(notifications, docs[i].toDomain())
	}
	return notifications, nil
}

// CountUnread returns how many of the user's notifications are unread
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	uid, err := objectID(userID)
	if err != nil {
		return 0, nil
	}

	n, err := r.notifications.CountDocuments(ctx, bson.M{"user_id": uid, "is_read": false})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// MarkRead flags one of the user's notifications as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) (*domain.Notification, error) {
	filter, err := ownedFilter(id, userID)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now().UTC().Truncate(time.Millisecond)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc notificationDocument
	if err := r.notifications.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, mapNoDocuments(err)
	}
	return doc.toDomain(), nil
}

// MarkAllRead flags every unread notification of the user as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	uid, err := objectID(userID)
	if err != nil {
		return nil
	}

	_, err = r.notifications.UpdateMany(ctx,
		bson.M{"user_id": uid, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now().UTC().Truncate(time.Millisecond)}},
	)
	return err
}

// Delete removes one of the user's notifications
func (r *NotificationRepository) Delete(ctx context.Context, id, userID string) error {
	filter, err := ownedFilter(id, userID)
	if err != nil {
		return err
	}

	result, err := r.notifications.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteAll removes every notification of the user
func (r *NotificationRepository) DeleteAll(ctx context.Context, userID string) error {
	uid, err := objectID(userID)
	if err != nil {
		return nil
	}

	_, err = r.notifications.DeleteMany(ctx, bson.M{"user_id": uid})
	return err
}
