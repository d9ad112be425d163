// Package mongodb implements the domain repositories on MongoDB. Domain ids
// are the hex form of ObjectIDs; money is stored as Decimal128.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

// Collection names
const (
	usersCollection         = "users"
	categoriesCollection    = "categories"
	productsCollection      = "products"
	cartsCollection         = "carts"
	reviewsCollection       = "reviews"
	addressesCollection     = "addresses"
	notificationsCollection = "notifications"
)

// EnsureIndexes creates the unique and lookup indexes the repositories rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		categoriesCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "category_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		cartsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		reviewsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		addressesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "type", Value: 1}}},
		},
		notificationsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

// objectID parses a domain id; anything that is not an ObjectID cannot
// exist, so it maps to ErrNotFound
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed id %q", domain.ErrNotFound, id)
	}
	return oid, nil
}

func optionalObjectID(id *string) (*primitive.ObjectID, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	oid, err := objectID(*id)
	if err != nil {
		return nil, err
	}
	return &oid, nil
}

func hexOrNil(oid *primitive.ObjectID) *string {
	if oid == nil {
		return nil
	}
	s := oid.Hex()
	return &s
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	d128, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return d128
}

func fromDecimal128(d128 primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(d128.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func mapNoDocuments(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return err
}
