package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "wedding-rings", Slugify("Wedding Rings"))
	assert.Equal(t, "gold-chains", Slugify("  Gold \t  Chains "))
	assert.Equal(t, "pearls", Slugify("PEARLS"))
}

func strPtr(s string) *string { return &s }

// tree: root <- rings <- wedding
func treeLookup(parents map[string]*string) ParentLookup {
	return func(ctx context.Context, id string) (*string, bool, error) {
		parent, ok := parents[id]
		return parent, ok, nil
	}
}

func TestCheckAncestry(t *testing.T) {
	parents := map[string]*string{
		"root":    nil,
		"rings":   strPtr("root"),
		"wedding": strPtr("rings"),
	}
	lookup := treeLookup(parents)
	ctx := context.Background()

	assert.NoError(t, CheckAncestry(ctx, "", "wedding", lookup), "new child of leaf")
	assert.NoError(t, CheckAncestry(ctx, "wedding", "root", lookup), "move leaf up")

	err := CheckAncestry(ctx, "rings", "wedding", lookup)
	assert.ErrorIs(t, err, ErrInvalidInput, "own descendant as parent")

	err = CheckAncestry(ctx, "root", "root", lookup)
	assert.ErrorIs(t, err, ErrInvalidInput, "self as parent")

	err = CheckAncestry(ctx, "", "missing", lookup)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckAncestry_ExistingLoopTerminates(t *testing.T) {
	parents := map[string]*string{
		"a": strPtr("b"),
		"b": strPtr("a"),
	}

	err := CheckAncestry(context.Background(), "", "a", treeLookup(parents))

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCheckAncestry_LookupError(t *testing.T) {
	boom := errors.New("db down")
	lookup := func(ctx context.Context, id string) (*string, bool, error) {
		return nil, false, boom
	}

	assert.ErrorIs(t, CheckAncestry(context.Background(), "x", "y", lookup), boom)
}

func TestCategoryPatch_Apply(t *testing.T) {
	base := func() *Category {
		return &Category{Name: "Fine Rings", Slug: "fine-rings", Description: "d", ParentID: strPtr("1")}
	}

	c := base()
	CategoryPatch{Name: strPtr("Gold Rings")}.Apply(c)
	assert.Equal(t, &Category{Name: "Gold Rings", Slug: "fine-rings", Description: "d", ParentID: strPtr("1")}, c)

	c = base()
	CategoryPatch{Description: strPtr("new")}.Apply(c)
	assert.Equal(t, &Category{Name: "Fine Rings", Slug: "fine-rings", Description: "new", ParentID: strPtr("1")}, c)

	c = base()
	CategoryPatch{Name: strPtr(" "), Slug: strPtr(""), ParentID: strPtr("")}.Apply(c)
	assert.Equal(t, base(), c)

	c = base()
	CategoryPatch{Slug: strPtr("rings"), ParentID: strPtr("2")}.Apply(c)
	assert.Equal(t, "rings", c.Slug)
	assert.Equal(t, "2", *c.ParentID)

	c = base()
	CategoryPatch{ClearParent: true}.Apply(c)
	assert.Nil(t, c.ParentID)
}
