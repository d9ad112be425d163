package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

func newMockT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func countResponse(ns string, n int32) bson.D {
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func duplicateKeyResponse() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"})
}

func TestObjectIDAndDecimalHelpers(t *testing.T) {
	_, err := objectID("42")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	oid := primitive.NewObjectID()
	parsed, err := objectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, parsed)

	none, err := optionalObjectID(nil)
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.Nil(t, hexOrNil(nil))

	price := decimal.RequireFromString("1299.99")
	assert.True(t, price.Equal(fromDecimal128(toDecimal128(price))))
}

func TestProductRepository_Mongo(t *testing.T) {
	mt := newMockT(t)

	mt.Run("get by id decodes the document", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		oid := primitive.NewObjectID()
		categoryID := primitive.NewObjectID()
		price, _ := primitive.ParseDecimal128("250.00")

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "store.products", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "Pearl Drop"},
			{Key: "price", Value: price},
			{Key: "category_id", Value: categoryID},
			{Key: "quantity", Value: int32(4)},
			{Key: "in_stock", Value: true},
			{Key: "rating", Value: 4.5},
			{Key: "review_count", Value: int32(2)},
			{Key: "version", Value: int32(3)},
		}))

		product, err := repo.GetByID(context.Background(), oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), product.ID)
		assert.Equal(mt, categoryID.Hex(), product.CategoryID)
		assert.True(mt, product.Price.Equal(decimal.NewFromInt(250)))
		assert.Equal(mt, 4.5, product.Rating)
		assert.Equal(mt, 2, product.ReviewCount)
	})

	mt.Run("missing product is not found", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "store.products", mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, domain.ErrNotFound)

		_, err = repo.GetByID(context.Background(), "17")
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})

	mt.Run("refresh rating stores the aggregate", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "store.reviews", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: nil},
				{Key: "avg", Value: 4.0},
				{Key: "count", Value: int32(2)},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}, bson.E{Key: "nModified", Value: int32(1)}),
		)

		summary, err := repo.RefreshRating(context.Background(), primitive.NewObjectID().Hex())
		require.NoError(mt, err)
		assert.Equal(mt, domain.RatingSummary{Rating: 4, ReviewCount: 2}, summary)
	})

	mt.Run("refresh rating with no reviews is zero", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "store.reviews", mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}, bson.E{Key: "nModified", Value: int32(1)}),
		)

		summary, err := repo.RefreshRating(context.Background(), primitive.NewObjectID().Hex())
		require.NoError(mt, err)
		assert.Equal(mt, domain.RatingSummary{}, summary)
	})

	mt.Run("refresh rating of a deleted product", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "store.reviews", mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}, bson.E{Key: "nModified", Value: int32(0)}),
		)

		_, err := repo.RefreshRating(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})
}

func TestCartRepository_Mongo(t *testing.T) {
	mt := newMockT(t)
	userID := primitive.NewObjectID()

	mt.Run("get or create returns the upserted cart", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB)
		cartID := primitive.NewObjectID()
		zero, _ := primitive.ParseDecimal128("0")

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: cartID},
			{Key: "user_id", Value: userID},
			{Key: "items", Value: bson.A{}},
			{Key: "total_quantity", Value: int32(0)},
			{Key: "total_amount", Value: zero},
			{Key: "version", Value: int32(1)},
			{Key: "created_at", Value: time.Now()},
			{Key: "updated_at", Value: time.Now()},
		}}))

		cart, err := repo.GetOrCreate(context.Background(), userID.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, cartID.Hex(), cart.ID)
		assert.Equal(mt, userID.Hex(), cart.UserID)
		assert.Empty(mt, cart.Items)
		assert.Equal(mt, 1, cart.Version)
	})

	mt.Run("save with a stale version conflicts", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}, bson.E{Key: "nModified", Value: int32(0)}))

		cart := domain.NewCart(userID.Hex())
		cart.Version = 4
		assert.ErrorIs(mt, repo.Save(context.Background(), cart), domain.ErrConflict)
		assert.Equal(mt, 4, cart.Version)
	})

	mt.Run("save bumps the version", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}, bson.E{Key: "nModified", Value: int32(1)}))

		cart := domain.NewCart(userID.Hex())
		cart.Version = 4
		require.NoError(mt, cart.AddItem(domain.ProductSnapshot{ID: "p1", Price: decimal.NewFromInt(5)}, 2))
		require.NoError(mt, repo.Save(context.Background(), cart))
		assert.Equal(mt, 5, cart.Version)
	})
}

func TestReviewRepository_Mongo(t *testing.T) {
	mt := newMockT(t)
	productID := primitive.NewObjectID().Hex()
	userID := primitive.NewObjectID().Hex()

	mt.Run("second review by the same user is a duplicate", func(mt *mtest.T) {
		repo := NewReviewRepository(mt.DB)
		mt.AddMockResponses(countResponse("store.products", 1), duplicateKeyResponse())

		err := repo.Create(context.Background(), &domain.Review{ProductID: productID, UserID: userID, Rating: 4})
		assert.ErrorIs(mt, err, domain.ErrAlreadyExists)
	})

	mt.Run("review of an unknown product", func(mt *mtest.T) {
		repo := NewReviewRepository(mt.DB)
		mt.AddMockResponses(countResponse("store.products", 0))

		err := repo.Create(context.Background(), &domain.Review{ProductID: productID, UserID: userID, Rating: 4})
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})

	mt.Run("create defaults to pending", func(mt *mtest.T) {
		repo := NewReviewRepository(mt.DB)
		mt.AddMockResponses(countResponse("store.products", 1), mtest.CreateSuccessResponse())

		review := &domain.Review{ProductID: productID, UserID: userID, Rating: 5}
		require.NoError(mt, repo.Create(context.Background(), review))
		assert.Equal(mt, domain.ReviewPending, review.Status)
		assert.Len(mt, review.ID, 24)
	})

	mt.Run("reads carry the author", func(mt *mtest.T) {
		repo := NewReviewRepository(mt.DB)
		reviewID := primitive.NewObjectID()
		uid, _ := primitive.ObjectIDFromHex(userID)
		pid, _ := primitive.ObjectIDFromHex(productID)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "store.reviews", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: reviewID},
			{Key: "product_id", Value: pid},
			{Key: "user_id", Value: uid},
			{Key: "rating", Value: int32(3)},
			{Key: "comment", Value: "Nice clasp"},
			{Key: "status", Value: domain.ReviewApproved},
			{Key: "author", Value: bson.A{bson.D{{Key: "name", Value: "alice"}}}},
		}))

		review, err := repo.GetByID(context.Background(), reviewID.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, 3, review.Rating)
		require.NotNil(mt, review.User)
		assert.Equal(mt, "alice", review.User.Name)
		assert.Equal(mt, userID, review.User.ID)
	})

	mt.Run("get by id of a missing review", func(mt *mtest.T) {
		repo := NewReviewRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "store.reviews", mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})
}

func TestCategoryRepository_Mongo(t *testing.T) {
	mt := newMockT(t)

	mt.Run("duplicate slug", func(mt *mtest.T) {
		repo := NewCategoryRepository(mt.DB)
		mt.AddMockResponses(duplicateKeyResponse())

		err := repo.Create(context.Background(), &domain.Category{Name: "Rings", Slug: "rings"})
		assert.ErrorIs(mt, err, domain.ErrAlreadyExists)
	})

	mt.Run("slug taken by another category", func(mt *mtest.T) {
		repo := NewCategoryRepository(mt.DB)
		mt.AddMockResponses(countResponse("store.categories", 1))

		taken, err := repo.SlugTaken(context.Background(), "rings", primitive.NewObjectID().Hex())
		require.NoError(mt, err)
		assert.True(mt, taken)
	})

	mt.Run("delete detaches children", func(mt *mtest.T) {
		repo := NewCategoryRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(2)}, bson.E{Key: "nModified", Value: int32(2)}),
		)

		require.NoError(mt, repo.Delete(context.Background(), primitive.NewObjectID().Hex()))
	})
}

func TestAddressRepository_Mongo(t *testing.T) {
	mt := newMockT(t)
	userID := primitive.NewObjectID().Hex()

	mt.Run("set default on a foreign address", func(mt *mtest.T) {
		repo := NewAddressRepository(mt.DB)
		mt.AddMockResponses(countResponse("store.addresses", 0))

		err := repo.SetDefault(context.Background(), userID, "shipping", primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})

	mt.Run("set default flips the whole type in one update", func(mt *mtest.T) {
		repo := NewAddressRepository(mt.DB)
		mt.AddMockResponses(
			countResponse("store.addresses", 1),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(3)}, bson.E{Key: "nModified", Value: int32(2)}),
		)

		require.NoError(mt, repo.SetDefault(context.Background(), userID, "shipping", primitive.NewObjectID().Hex()))
	})
}

func TestNotificationRepository_Mongo(t *testing.T) {
	mt := newMockT(t)

	mt.Run("mark read of someone else's notification", func(mt *mtest.T) {
		repo := NewNotificationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.MarkRead(context.Background(), primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})

	mt.Run("unread count", func(mt *mtest.T) {
		repo := NewNotificationRepository(mt.DB)
		mt.AddMockResponses(countResponse("store.notifications", 3))

		n, err := repo.CountUnread(context.Background(), primitive.NewObjectID().Hex())
		require.NoError(mt, err)
		assert.Equal(mt, 3, n)
	})
}

func TestUserRepository_Mongo(t *testing.T) {
	mt := newMockT(t)

	mt.Run("delete clears owned documents and reports reviewed products", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		reviewed := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{reviewed}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(2)}),
		)

		affected, err := repo.Delete(context.Background(), primitive.NewObjectID().Hex())
		require.NoError(mt, err)
		assert.Equal(mt, []string{reviewed.Hex()}, affected)
	})

	mt.Run("delete of an unknown user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}),
		)

		_, err := repo.Delete(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})
}
