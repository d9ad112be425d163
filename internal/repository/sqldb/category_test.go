package sqldb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

func TestCategoryRepository_CreateAndLookup(t *testing.T) {
	db := newTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	parent := seedCategory(t, db, "Jewelry")
	child := &domain.Category{Name: "Wedding Rings", Slug: "wedding-rings", ParentID: &parent.ID}
	require.NoError(t, repo.Create(ctx, child))

	got, err := repo.GetBySlug(ctx, "wedding-rings")
	require.NoError(t, err)
	assert.Equal(t, child.ID, got.ID)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, parent.ID, *got.ParentID)

	root, err := repo.GetByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Jewelry", all[0].Name)

	_, err = repo.GetBySlug(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCategoryRepository_SlugUniqueness(t *testing.T) {
	db := newTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	rings := seedCategory(t, db, "Rings")
	other := seedCategory(t, db, "Earrings")

	err := repo.Create(ctx, &domain.Category{Name: "rings", Slug: "rings"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	taken, err := repo.SlugTaken(ctx, "rings", "")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.SlugTaken(ctx, "rings", rings.ID)
	require.NoError(t, err)
	assert.False(t, taken, "a category's own slug is not a collision")

	other.Slug = "rings"
	assert.ErrorIs(t, repo.Update(ctx, other), domain.ErrAlreadyExists)
}

func TestCategoryRepository_DeleteReferencedByProduct(t *testing.T) {
	db := newTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	rings := seedCategory(t, db, "Rings")
	seedProduct(t, db, rings.ID, "Band")

	assert.ErrorIs(t, repo.Delete(ctx, rings.ID), domain.ErrConstraint)

	_, err := repo.GetByID(ctx, rings.ID)
	assert.NoError(t, err)

	empty := seedCategory(t, db, "Brooches")
	require.NoError(t, repo.Delete(ctx, empty.ID))
	assert.ErrorIs(t, repo.Delete(ctx, empty.ID), domain.ErrNotFound)
}
