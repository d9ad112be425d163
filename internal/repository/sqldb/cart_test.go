package sqldb

import (
	"context"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

func TestCartRepository_GetOrCreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()
	userID := seedUser(t, db, "alice")

	_, err := repo.GetByUserID(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first, err := repo.GetOrCreate(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, first.Items)
	assert.Equal(t, 0, first.TotalQuantity)
	assert.True(t, first.TotalAmount.IsZero())

	var wg sync.WaitGroup
	ids := make([]string, 5)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cart, err := repo.GetOrCreate(ctx, userID)
			if assert.NoError(t, err) {
				ids[i] = cart.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, first.ID, id)
	}

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM carts WHERE user_id = ?`, userID))
	assert.Equal(t, 1, count)
}

func TestCartRepository_SaveRoundTripAndConflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()
	userID := seedUser(t, db, "bob")

	cart, err := repo.GetOrCreate(ctx, userID)
	require.NoError(t, err)

	stale := *cart

	require.NoError(t, cart.AddItem(domain.ProductSnapshot{ID: "1", Name: "Ring", Price: decimal.RequireFromString("100.00")}, 2))
	require.NoError(t, repo.Save(ctx, cart))
	assert.Equal(t, 2, cart.Version)

	stored, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.Equal(t, 2, stored.TotalQuantity)
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 2, stored.Version)

	stale.Clear()
	assert.ErrorIs(t, repo.Save(ctx, &stale), domain.ErrConflict)

	after, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, after.Items, 1, "stale write must not land")
}

func TestCartRepository_SaveIsCompareAndSwap(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewCartRepository(sqlx.NewDb(mockDB, "sqlmock"))
	cart := domain.NewCart("5")
	cart.Version = 3

	mock.ExpectExec(`UPDATE carts\s+SET items = \?, total_quantity = \?, total_amount = \?, updated_at = \?, version = version \+ 1\s+WHERE user_id = \? AND version = \?`).
		WithArgs("[]", 0, sqlmock.AnyArg(), sqlmock.AnyArg(), int64(5), 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Save(context.Background(), cart)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 3, cart.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
