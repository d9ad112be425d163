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

type addressDocument struct {
	ID         primitive.ObjectID `bson:"_id"`
	UserID     primitive.ObjectID `bson:"user_id"`
	Type       string             `bson:"type"`
	Street     string             `bson:"street"`
	City       string             `bson:"city"`
	State      string             `bson:"state"`
	Country    string             `bson:"country"`
	PostalCode string             `bson:"postal_code"`
	IsDefault  bool               `bson:"is_default"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func (d *addressDocument) toDomain() *domain.Address {
	return &domain.Address{
		ID:         d.ID.Hex(),
		UserID:     d.UserID.Hex(),
		Type:       d.Type,
		Street:     d.Street,
		City:       d.City,
		State:      d.State,
		Country:    d.Country,
		PostalCode: d.PostalCode,
		IsDefault:  d.IsDefault,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// AddressRepository implements domain.AddressRepository
type AddressRepository struct {
	addresses *mongo.Collection
}

// NewAddressRepository creates a new address repository
func NewAddressRepository(db *mongo.Database) *AddressRepository {
	return &AddressRepository{addresses: db.Collection(addressesCollection)}
}

func ownedFilter(id, userID string) (bson.M, error) {
	aid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	uid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": aid, "user_id": uid}, nil
}

// Create creates a new, non-default address
func (r *AddressRepository) Create(ctx context.Context, address *domain.Address) error {
	uid, err := objectID(address.UserID)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := addressDocument{
		ID:         primitive.NewObjectID(),
		UserID:     uid,
		Type:       address.Type,
		Street:     address.Street,
		City:       address.City,
		State:      address.State,
		Country:    address.Country,
		PostalCode: address.PostalCode,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := r.addresses.InsertOne(ctx, doc); err != nil {
		return err
	}

	*address = *doc.toDomain()
	return nil
}

// GetForUser retrieves an address owned by userID
func (r *AddressRepository) GetForUser(ctx context.Context, id, userID string) (*domain.Address, error) {
	filter, err := ownedFilter(id, userID)
	if err != nil {
		return nil, err
	}

	var doc addressDocument
	if err := r.addresses.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapNoDocuments(err)
	}
	return doc.toDomain(), nil
}

// ListByUser retrieves a user's addresses, defaults first then newest
func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Address, error) {
	uid, err := objectID(userID)
	if err != nil {
		return []*domain.Address{}, nil
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "is_default", Value: -1},
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cursor, err := r.addresses.Find(ctx, bson.M{"user_id": uid}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []addressDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	addresses := make([]*domain.Address, 0, len(docs))
	for i := range docs {
		addresses = append(addresses, docs[i].toDomain())
	}
	return addresses, nil
}

// Update updates the postal fields and type of an address. A pipeline
// update evaluates is_default against the old type, so moving a default
// address to another type drops its flag in the same write.
func (r *AddressRepository) Update(ctx context.Context, address *domain.Address) error {
	filter, err := ownedFilter(address.ID, address.UserID)
	if err != nil {
		return err
	}

	address.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"is_default": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$type", address.Type}}, "$is_default", false,
		}},
		"type":        address.Type,
		"street":      address.Street,
		"city":        address.City,
		"state":       address.State,
		"country":     address.Country,
		"postal_code": address.PostalCode,
		"updated_at":  address.UpdatedAt,
	}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc addressDocument
	if err := r.addresses.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return mapNoDocuments(err)
	}

	*address = *doc.toDomain()
	return nil
}

// Delete removes an address owned by userID
func (r *AddressRepository) Delete(ctx context.Context, id, userID string) error {
	filter, err := ownedFilter(id, userID)
	if err != nil {
		return err
	}

	result, err := r.addresses.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetDefault flags id as the only default among the owner's addresses of
// addressType with one pipeline UpdateMany
func (r *AddressRepository) SetDefault(ctx context.Context, userID, addressType, id string) error {
	filter, err := ownedFilter(id, userID)
	if err != nil {
		return err
	}
	filter["type"] = addressType

	n, err := r.addresses.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"is_default": bson.M{"$eq": bson.A{"$_id", filter["_id"]}},
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}}}

	_, err = r.addresses.UpdateMany(ctx, bson.M{"user_id": filter["user_id"], "type": addressType}, update)
	return err
}
