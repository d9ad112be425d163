package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Role      string             `bson:"role"`
	IsActive  bool               `bson:"is_active"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Role:      d.Role,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
	}
}

// userProjection keeps credential fields written by the auth service out of reads
var userProjection = bson.M{"name": 1, "email": 1, "role": 1, "is_active": 1, "created_at": 1}

// UserRepository implements domain.UserRepository
type UserRepository struct {
	db    *mongo.Database
	users *mongo.Collection
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{db: db, users: db.Collection(usersCollection)}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc userDocument
	opts := options.FindOne().SetProjection(userProjection)
	if err := r.users.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		return nil, mapNoDocuments(err)
	}
	return doc.toDomain(), nil
}

// List retrieves all users, newest first
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	opts := options.Find().
		SetProjection(userProjection).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

// Delete removes a user and everything the user owns. There are no foreign
// keys here, so the owned collections are cleared explicitly; the products
// the user had reviewed are returned for a rating refresh.
func (r *UserRepository) Delete(ctx context.Context, id string) ([]string, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	raw, err := r.db.Collection(reviewsCollection).Distinct(ctx, "product_id", bson.M{"user_id": oid})
	if err != nil {
		return nil, err
	}

	result, err := r.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if result.DeletedCount == 0 {
		return nil, domain.ErrNotFound
	}

	for _, collection := range []string{cartsCollection, reviewsCollection, addressesCollection, notificationsCollection} {
		if _, err := r.db.Collection(collection).DeleteMany(ctx, bson.M{"user_id": oid}); err != nil {
			return nil, fmt.Errorf("failed to delete %s of user %s: %w", collection, id, err)
		}
	}

	productIDs := make([]string, 0, len(raw))
	for _, v := range raw {
		if pid, ok := v.(primitive.ObjectID); ok {
			productIDs = append(productIDs, pid.Hex())
		}
	}
	return productIDs, nil
}
