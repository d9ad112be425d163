//go:build integration

package sqldb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/database"
)

// setupPostgres starts a PostgreSQL container and applies the schema
func setupPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("jewelry_store"),
		postgres.WithUsername("jewelry"),
		postgres.WithPassword("jewelry"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Connect("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.RunMigrations(db, "postgres"))
	require.NoError(t, database.RunMigrations(db, "postgres"), "schema must be re-runnable")

	return db
}

func TestPostgres_ConcurrentReviewsConverge(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	category := seedCategory(t, db, "Rings")
	product := seedProduct(t, db, category.ID, "Solitaire")

	reviews := NewReviewRepository(db)
	products := NewProductRepository(db)

	ratings := []int{5, 4, 3, 2, 1, 5, 4, 3}
	var wg sync.WaitGroup
	for i, rating := range ratings {
		userID := seedUser(t, db, "user"+string(rune('a'+i)))
		wg.Add(1)
		go func(userID string, rating int) {
			defer wg.Done()
			assert.NoError(t, reviews.Create(ctx, &domain.Review{ProductID: product.ID, UserID: userID, Rating: rating}))
			_, err := products.RefreshRating(ctx, product.ID)
			assert.NoError(t, err)
		}(userID, rating)
	}
	wg.Wait()

	// the reconciler's pass after the burst
	_, err := products.RefreshRating(ctx, product.ID)
	require.NoError(t, err)

	stored, err := products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, len(ratings), stored.ReviewCount)
	assert.InDelta(t, domain.Summarize(ratings).Rating, stored.Rating, 1e-9)
}

func TestPostgres_DuplicateReviewAndCartCreation(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	category := seedCategory(t, db, "Rings")
	product := seedProduct(t, db, category.ID, "Band")
	userID := seedUser(t, db, "alice")

	reviews := NewReviewRepository(db)
	require.NoError(t, reviews.Create(ctx, &domain.Review{ProductID: product.ID, UserID: userID, Rating: 5}))
	assert.ErrorIs(t, reviews.Create(ctx, &domain.Review{ProductID: product.ID, UserID: userID, Rating: 1}), domain.ErrAlreadyExists)

	carts := NewCartRepository(db)
	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cart, err := carts.GetOrCreate(ctx, userID)
			if assert.NoError(t, err) {
				ids[i] = cart.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	cart, err := carts.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, cart.AddItem(domain.ProductSnapshot{ID: product.ID, Name: "Band", Price: decimal.RequireFromString("99.99")}, 3))
	require.NoError(t, carts.Save(ctx, cart))

	stored, err := carts.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("299.97")))
}

func TestPostgres_DefaultAddressUnderContention(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	repo := NewAddressRepository(db)
	userID := seedUser(t, db, "alice")

	var addresses []*domain.Address
	for _, street := range []string{"1 Diamond St", "2 Gold Ave", "3 Silver Rd", "4 Pearl Ln"} {
		a := newAddress(userID, "shipping", street)
		require.NoError(t, repo.Create(ctx, a))
		addresses = append(addresses, a)
	}

	var wg sync.WaitGroup
	for _, a := range addresses {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, repo.SetDefault(ctx, userID, "shipping", id))
		}(a.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, countDefaults(t, repo, userID, "shipping"))
}
