package mongodb

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

type cartItemDocument struct {
	ProductID string               `bson:"product_id"`
	Name      string               `bson:"name"`
	Price     primitive.Decimal128 `bson:"price"`
	Image     string               `bson:"image"`
	Quantity  int                  `bson:"quantity"`
	Total     primitive.Decimal128 `bson:"total"`
}

type cartDocument struct {
	ID            primitive.ObjectID   `bson:"_id"`
	UserID        primitive.ObjectID   `bson:"user_id"`
	Items         []cartItemDocument   `bson:"items"`
	TotalQuantity int                  `bson:"total_quantity"`
	TotalAmount   primitive.Decimal128 `bson:"total_amount"`
	Version       int                  `bson:"version"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

func (d *cartDocument) toDomain() *domain.Cart {
	items := make([]domain.CartItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, domain.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     fromDecimal128(item.Price),
			Image:     item.Image,
			Quantity:  item.Quantity,
			Total:     fromDecimal128(item.Total),
		})
	}
	return &domain.Cart{
		ID:            d.ID.Hex(),
		UserID:        d.UserID.Hex(),
		Items:         items,
		TotalQuantity: d.TotalQuantity,
		TotalAmount:   fromDecimal128(d.TotalAmount),
		Version:       d.Version,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func itemDocuments(items []domain.CartItem) []cartItemDocument {
	docs := make([]cartItemDocument, 0, len(items))
	for _, item := range items {
		docs = append(docs, cartItemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     toDecimal128(item.Price),
			Image:     item.Image,
			Quantity:  item.Quantity,
			Total:     toDecimal128(item.Total),
		})
	}
	return docs
}

// CartRepository implements domain.CartRepository
type CartRepository struct {
	carts *mongo.Collection
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{carts: db.Collection(cartsCollection)}
}

// GetByUserID retrieves the user's cart
func (r *CartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	uid, err := objectID(userID)
	if err != nil {
		return nil, err
	}

	var doc cartDocument
	if err := r.carts.FindOne(ctx, bson.M{"user_id": uid}).Decode(&doc); err != nil {
		return nil, mapNoDocuments(err)
	}
	return doc.toDomain(), nil
}

// GetOrCreate upserts an empty cart for the user and returns the stored one.
// $setOnInsert leaves an existing cart untouched. Two first-time upserts can
// still race on the unique user_id index; the loser reads the winner's cart.
func (r *CartRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	uid, err := objectID(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{"$setOnInsert": bson.M{
		"items":          bson.A{},
		"total_quantity": 0,
		"total_amount":   toDecimal128(decimal.Zero),
		"version":        1,
		"created_at":     now,
		"updated_at":     now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc cartDocument
	err = r.carts.FindOneAndUpdate(ctx, bson.M{"user_id": uid}, update, opts).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// Save writes items and totals if the stored version still equals
// cart.Version, and bumps it
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	uid, err := objectID(cart.UserID)
	if err != nil {
		return err
	}

	updatedAt := time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.carts.UpdateOne(ctx,
		bson.M{"user_id": uid, "version": cart.Version},
		bson.M{
			"$set": bson.M{
				"items":          itemDocuments(cart.Items),
				"total_quantity": cart.TotalQuantity,
				"total_amount":   toDecimal128(cart.TotalAmount),
				"updated_at":     updatedAt,
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrConflict
	}

	cart.Version++
	cart.UpdatedAt = updatedAt
	return nil
}
