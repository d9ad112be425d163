package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

type reviewDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	ProductID primitive.ObjectID `bson:"product_id"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Rating    int                `bson:"rating"`
	Comment   string             `bson:"comment"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`

	// filled by the $lookup stage on reads
	Author []struct {
		Name string `bson:"name"`
	} `bson:"author,omitempty"`
}

func (d *reviewDocument) toDomain() *domain.Review {
	review := &domain.Review{
		ID:        d.ID.Hex(),
		ProductID: d.ProductID.Hex(),
		UserID:    d.UserID.Hex(),
		Rating:    d.Rating,
		Comment:   d.Comment,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if len(d.Author) > 0 {
		review.User = &domain.UserSummary{ID: review.UserID, Name: d.Author[0].Name}
	}
	return review
}

// ReviewRepository implements domain.ReviewRepository
type ReviewRepository struct {
	reviews  *mongo.Collection
	products *mongo.Collection
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{
		reviews:  db.Collection(reviewsCollection),
		products: db.Collection(productsCollection),
	}
}

// Create creates a new review; the unique (user_id, product_id) index
// rejects a second review by the same user
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	productID, err := objectID(review.ProductID)
	if err != nil {
		return err
	}
	userID, err := objectID(review.UserID)
	if err != nil {
		return err
	}

	n, err := r.products.CountDocuments(ctx, bson.M{"_id": productID})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: product", domain.ErrNotFound)
	}

	if review.Status == "" {
		review.Status = domain.ReviewPending
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := reviewDocument{
		ID:        primitive.NewObjectID(),
		ProductID: productID,
		UserID:    userID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		Status:    review.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.reviews.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: product already reviewed", domain.ErrAlreadyExists)
		}
		return err
	}

	review.ID = doc.ID.Hex()
	review.CreatedAt = now
	review.UpdatedAt = now
	return nil
}

// find runs match plus optional paging, joining each review's author
func (r *ReviewRepository) find(ctx context.Context, match bson.M, sort bson.D, offset, limit int) ([]*domain.Review, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	if sort != nil {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if offset > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(offset)}})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(limit)}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.M{
		"from":         usersCollection,
		"localField":   "user_id",
		"foreignField": "_id",
		"as":           "author",
	}}})

	cursor, err := r.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []reviewDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	reviews := make([]*domain.Review, 0, len(docs))
	for i := range docs {
		reviews = append(reviews, docs[i].toDomain())
	}
	return reviews, nil
}

func (r *ReviewRepository) findOne(ctx context.Context, match bson.M) (*domain.Review, error) {
	reviews, err := r.find(ctx, match, nil, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, domain.ErrNotFound
	}
	return reviews[0], nil
}

// GetByID retrieves a review by ID with its author projection
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByUserAndProduct returns the user's review of a product
func (r *ReviewRepository) FindByUserAndProduct(ctx context.Context, userID, productID string) (*domain.Review, error) {
	uid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	pid, err := objectID(productID)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"user_id": uid, "product_id": pid})
}

// GetByProductID retrieves reviews for a product with pagination, newest first
func (r *ReviewRepository) GetByProductID(ctx context.Context, productID string, limit, offset int) ([]*domain.Review, error) {
	pid, err := objectID(productID)
	if err != nil {
		return []*domain.Review{}, nil
	}
	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	return r.find(ctx, bson.M{"product_id": pid}, sort, offset, limit)
}

// ListByStatus retrieves all reviews in the given moderation state, oldest first
func (r *ReviewRepository) ListByStatus(ctx context.Context, status string) ([]*domain.Review, error) {
	sort := bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	return r.find(ctx, bson.M{"status": status}, sort, 0, 0)
}

// Update updates rating, comment and status of an existing review
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	oid, err := objectID(review.ID)
	if err != nil {
		return err
	}

	review.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.reviews.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"rating":     review.Rating,
		"comment":    review.Comment,
		"status":     review.Status,
		"updated_at": review.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a review
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.reviews.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountByProductID returns the total number of reviews for a product
func (r *ReviewRepository) CountByProductID(ctx context.Context, productID string) (int, error) {
	pid, err := objectID(productID)
	if err != nil {
		return 0, nil
	}

	n, err := r.reviews.CountDocuments(ctx, bson.M{"product_id": pid})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
