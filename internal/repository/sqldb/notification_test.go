package sqldb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

func TestNotificationRepository_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	first := &domain.Notification{UserID: alice, Type: "review", Title: "Review approved"}
	second := &domain.Notification{UserID: alice, Type: "review", Title: "Review rejected"}
	other := &domain.Notification{UserID: bob, Type: "review", Title: "Hello bob"}
	for _, n := range []*domain.Notification{first, second, other} {
		require.NoError(t, repo.Create(ctx, n))
	}

	list, err := repo.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	unread, err := repo.CountUnread(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	_, err = repo.MarkRead(ctx, other.ID, alice)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	read, err := repo.MarkRead(ctx, first.ID, alice)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	unread, err = repo.CountUnread(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	require.NoError(t, repo.MarkAllRead(ctx, alice))
	unread, err = repo.CountUnread(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)

	bobUnread, err := repo.CountUnread(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, bobUnread)

	assert.ErrorIs(t, repo.Delete(ctx, other.ID, alice), domain.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, first.ID, alice))

	require.NoError(t, repo.DeleteAll(ctx, alice))
	list, err = repo.ListByUser(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, list)

	bobs, err := repo.ListByUser(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, bobs, 1)
}
