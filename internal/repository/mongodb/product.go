package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

type productDocument struct {
	ID          primitive.ObjectID   `bson:"_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Price       primitive.Decimal128 `bson:"price"`
	Image       string               `bson:"image"`
	CategoryID  primitive.ObjectID   `bson:"category_id"`
	Quantity    int                  `bson:"quantity"`
	InStock     bool                 `bson:"in_stock"`
	Featured    bool                 `bson:"featured"`
	Rating      float64              `bson:"rating"`
	ReviewCount int                  `bson:"review_count"`
	Version     int                  `bson:"version"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func (d *productDocument) toDomain() *domain.Product {
	return &domain.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       fromDecimal128(d.Price),
		Image:       d.Image,
		CategoryID:  d.CategoryID.Hex(),
		Quantity:    d.Quantity,
		InStock:     d.InStock,
		Featured:    d.Featured,
		Rating:      d.Rating,
		ReviewCount: d.ReviewCount,
		Version:     d.Version,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// ProductRepository implements domain.ProductRepository
type ProductRepository struct {
	products *mongo.Collection
	reviews  *mongo.Collection
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		products: db.Collection(productsCollection),
		reviews:  db.Collection(reviewsCollection),
	}
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	categoryID, err := objectID(product.CategoryID)
	if err != nil {
		return fmt.Errorf("%w: category", domain.ErrNotFound)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := productDocument{
		ID:          primitive.NewObjectID(),
		Name:        product.Name,
		Description: product.Description,
		Price:       toDecimal128(product.Price),
		Image:       product.Image,
		CategoryID:  categoryID,
		Quantity:    product.Quantity,
		InStock:     product.InStock,
		Featured:    product.Featured,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.products.InsertOne(ctx, doc); err != nil {
		return err
	}

	*product = *doc.toDomain()
	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc productDocument
	if err := r.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapNoDocuments(err)
	}

	return doc.toDomain(), nil
}

func productFilter(filter domain.ProductFilter) (bson.M, error) {
	query := bson.M{}
	if filter.CategoryID != "" {
		categoryID, err := objectID(filter.CategoryID)
		if err != nil {
			return nil, err
		}
		query["category_id"] = categoryID
	}
	if filter.Featured != nil {
		query["featured"] = *filter.Featured
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	return query, nil
}

// List retrieves a paginated, filtered list of products, newest first
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter, limit, offset int) ([]*domain.Product, error) {
	query, err := productFilter(filter)
	if err != nil {
		return []*domain.Product{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.products.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].toDomain())
	}
	return products, nil
}

// Count returns the number of products matching filter
func (r *ProductRepository) Count(ctx context.Context, filter domain.ProductFilter) (int, error) {
	query, err := productFilter(filter)
	if err != nil {
		return 0, nil
	}

	n, err := r.products.CountDocuments(ctx, query)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Update updates an existing product's catalog fields
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	oid, err := objectID(product.ID)
	if err != nil {
		return err
	}
	categoryID, err := objectID(product.CategoryID)
	if err != nil {
		return fmt.Errorf("%w: category", domain.ErrNotFound)
	}

	product.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.products.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"name":        product.Name,
			"description": product.Description,
			"price":       toDecimal128(product.Price),
			"image":       product.Image,
			"category_id": categoryID,
			"quantity":    product.Quantity,
			"in_stock":    product.InStock,
			"featured":    product.Featured,
			"updated_at":  product.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	product.Version++
	return nil
}

// Delete removes a product and its reviews
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.products.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}

	if _, err := r.reviews.DeleteMany(ctx, bson.M{"product_id": oid}); err != nil {
		return fmt.Errorf("failed to delete reviews of product %s: %w", id, err)
	}
	return nil
}

// CountByCategory returns how many products reference a category
func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	oid, err := objectID(categoryID)
	if err != nil {
		return 0, nil
	}

	n, err := r.products.CountDocuments(ctx, bson.M{"category_id": oid})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// RefreshRating aggregates the product's reviews and stores rating and
// review_count with a single $set
func (r *ProductRepository) RefreshRating(ctx context.Context, productID string) (domain.RatingSummary, error) {
	oid, err := objectID(productID)
	if err != nil {
		return domain.RatingSummary{}, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": oid}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"avg":   bson.M{"$avg": "$rating"},
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Avg   float64 `bson:"avg"`
		Count int     `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return domain.RatingSummary{}, err
	}

	var summary domain.RatingSummary
	if len(groups) > 0 {
		summary = domain.RatingSummary{Rating: groups[0].Avg, ReviewCount: groups[0].Count}
	}

	result, err := r.products.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"rating":       summary.Rating,
			"review_count": summary.ReviewCount,
			"updated_at":   time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("failed to update product rating: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.RatingSummary{}, domain.ErrNotFound
	}

	return summary, nil
}
