package sqldb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

func newAddress(userID, kind, street string) *domain.Address {
	return &domain.Address{
		UserID:     userID,
		Type:       kind,
		Street:     street,
		City:       "Antwerp",
		Country:    "BE",
		PostalCode: "2000",
	}
}

func countDefaults(t *testing.T, repo *AddressRepository, userID, kind string) int {
	t.Helper()
	addresses, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	n := 0
	for _, a := range addresses {
		if a.Type == kind && a.IsDefault {
			n++
		}
	}
	return n
}

func TestAddressRepository_SetDefaultKeepsExactlyOne(t *testing.T) {
	db := newTestDB(t)
	repo := NewAddressRepository(db)
	ctx := context.Background()
	userID := seedUser(t, db, "alice")

	home := newAddress(userID, "shipping", "1 Diamond St")
	office := newAddress(userID, "shipping", "2 Gold Ave")
	billing := newAddress(userID, "billing", "3 Silver Rd")
	for _, a := range []*domain.Address{home, office, billing} {
		require.NoError(t, repo.Create(ctx, a))
	}

	require.NoError(t, repo.SetDefault(ctx, userID, "billing", billing.ID))
	require.NoError(t, repo.SetDefault(ctx, userID, "shipping", home.ID))
	require.NoError(t, repo.SetDefault(ctx, userID, "shipping", office.ID))

	assert.Equal(t, 1, countDefaults(t, repo, userID, "shipping"))
	assert.Equal(t, 1, countDefaults(t, repo, userID, "billing"))

	list, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].IsDefault)
	assert.True(t, list[1].IsDefault)
	assert.False(t, list[2].IsDefault)
	assert.Equal(t, home.ID, list[2].ID)
}

func TestAddressRepository_OwnershipScoping(t *testing.T) {
	db := newTestDB(t)
	repo := NewAddressRepository(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	mallory := seedUser(t, db, "mallory")

	address := newAddress(alice, "shipping", "1 Diamond St")
	require.NoError(t, repo.Create(ctx, address))
	require.NoError(t, repo.SetDefault(ctx, alice, "shipping", address.ID))

	_, err := repo.GetForUser(ctx, address.ID, mallory)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, repo.SetDefault(ctx, mallory, "shipping", address.ID), domain.ErrNotFound)
	assert.ErrorIs(t, repo.SetDefault(ctx, alice, "billing", address.ID), domain.ErrNotFound)
	assert.Equal(t, 1, countDefaults(t, repo, alice, "shipping"), "failed calls leave the default alone")

	assert.ErrorIs(t, repo.Delete(ctx, address.ID, mallory), domain.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, address.ID, alice))
}

func TestAddressRepository_UpdateMovingTypeDropsDefault(t *testing.T) {
	db := newTestDB(t)
	repo := NewAddressRepository(db)
	ctx := context.Background()
	userID := seedUser(t, db, "alice")

	shipping := newAddress(userID, "shipping", "1 Diamond St")
	billing := newAddress(userID, "billing", "3 Silver Rd")
	require.NoError(t, repo.Create(ctx, shipping))
	require.NoError(t, repo.Create(ctx, billing))
	require.NoError(t, repo.SetDefault(ctx, userID, "shipping", shipping.ID))
	require.NoError(t, repo.SetDefault(ctx, userID, "billing", billing.ID))

	shipping.Street = "9 Platinum Blvd"
	require.NoError(t, repo.Update(ctx, shipping))
	assert.True(t, shipping.IsDefault)

	shipping.Type = "billing"
	require.NoError(t, repo.Update(ctx, shipping))
	assert.False(t, shipping.IsDefault)
	assert.Equal(t, 1, countDefaults(t, repo, userID, "billing"))

	got, err := repo.GetForUser(ctx, shipping.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "9 Platinum Blvd", got.Street)
}

func TestAddressRepository_SetDefaultIsSingleUpdate(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewAddressRepository(sqlx.NewDb(mockDB, "sqlmock"))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM addresses WHERE id = \? AND user_id = \? AND type = \?`).
		WithArgs(int64(9), int64(2), "shipping").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE addresses SET is_default = CASE WHEN id = \? THEN TRUE ELSE FALSE END, updated_at = \? WHERE user_id = \? AND type = \?`).
		WithArgs(int64(9), sqlmock.AnyArg(), int64(2), "shipping").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.SetDefault(context.Background(), "2", "shipping", "9"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
