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

type categoryDocument struct {
	ID          primitive.ObjectID  `bson:"_id"`
	Name        string              `bson:"name"`
	Slug        string              `bson:"slug"`
	Description string              `bson:"description"`
	ParentID    *primitive.ObjectID `bson:"parent_id"`
	CreatedAt   time.Time           `bson:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at"`
}

func (d *categoryDocument) toDomain() *domain.Category {
	return &domain.Category{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		ParentID:    hexOrNil(d.ParentID),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// CategoryRepository implements domain.CategoryRepository
type CategoryRepository struct {
	categories *mongo.Collection
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{categories: db.Collection(categoriesCollection)}
}

// Create creates a new category; the unique slug index rejects collisions
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	parentID, err := optionalObjectID(category.ParentID)
	if err != nil {
		return fmt.Errorf("%w: parent category", domain.ErrNotFound)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := categoryDocument{
		ID:          primitive.NewObjectID(),
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		ParentID:    parentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.categories.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: category slug %q", domain.ErrAlreadyExists, category.Slug)
		}
		return err
	}

	*category = *doc.toDomain()
	return nil
}

func (r *CategoryRepository) findOne(ctx context.Context, filter bson.M) (*domain.Category, error) {
	var doc categoryDocument
	if err := r.categories.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapNoDocuments(err)
	}
	return doc.toDomain(), nil
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetBySlug retrieves a category by slug
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

// List retrieves all categories ordered by name
func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.categories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	categories := make([]*domain.Category, 0, len(docs))
	for i := range docs {
		categories = append(categories, docs[i].toDomain())
	}
	return categories, nil
}

// SlugTaken reports whether a category other than excludeID uses slug
func (r *CategoryRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	filter := bson.M{"slug": slug}
	if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}

	n, err := r.categories.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update updates an existing category
func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	oid, err := objectID(category.ID)
	if err != nil {
		return err
	}
	parentID, err := optionalObjectID(category.ParentID)
	if err != nil {
		return fmt.Errorf("%w: parent category", domain.ErrNotFound)
	}

	category.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.categories.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"name":        category.Name,
		"slug":        category.Slug,
		"description": category.Description,
		"parent_id":   parentID,
		"updated_at":  category.UpdatedAt,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: category slug %q", domain.ErrAlreadyExists, category.Slug)
		}
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a category and detaches its children
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.categories.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}

	_, err = r.categories.UpdateMany(ctx, bson.M{"parent_id": oid}, bson.M{"$set": bson.M{"parent_id": nil}})
	if err != nil {
		return fmt.Errorf("failed to detach children of category %s: %w", id, err)
	}
	return nil
}
