package domain

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Category groups products; categories may nest through ParentID
type Category struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" validate:"required,min=1,max=255"`
	Slug        string    `json:"slug" db:"slug" validate:"required,min=1,max=255"`
	Description string    `json:"description" db:"description" validate:"max=5000"`
	ParentID    *string   `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CategoryPatch carries the fields of a partial category update; nil means
// unchanged. ClearParent detaches the category from its parent.
type CategoryPatch struct {
	Name        *string
	Slug        *string
	Description *string
	ParentID    *string
	ClearParent bool
}

// Apply copies supplied fields onto the category. An empty name or slug is
// treated as not supplied; the stored slug is never re-derived from a new name.
func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		c.Name = *p.Name
	}
	if p.Slug != nil && *p.Slug != "" {
		c.Slug = *p.Slug
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	switch {
	case p.ClearParent:
		c.ParentID = nil
	case p.ParentID != nil && *p.ParentID != "":
		parent := *p.ParentID
		c.ParentID = &parent
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// Slugify derives a slug from a category name: lowercased, whitespace runs
// replaced by a single hyphen.
func Slugify(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// ParentLookup resolves a category's parent id; ok is false when the
// category does not exist
type ParentLookup func(ctx context.Context, id string) (parentID *string, ok bool, err error)

// CheckAncestry verifies that making parentID the parent of categoryID keeps
// the tree acyclic. categoryID is empty for a category not yet stored.
func CheckAncestry(ctx context.Context, categoryID, parentID string, lookup ParentLookup) error {
	seen := map[string]bool{}
	current := parentID
	for current != "" {
		if categoryID != "" && current == categoryID {
			return fmt.Errorf("%w: category parent cycle", ErrInvalidInput)
		}
		if seen[current] {
			return fmt.Errorf("%w: category parent cycle", ErrInvalidInput)
		}
		seen[current] = true

		next, ok, err := lookup(ctx, current)
		if err != nil {
			return err
		}
		if !ok {
			if current == parentID {
				return fmt.Errorf("%w: parent category", ErrNotFound)
			}
			return nil
		}
		if next == nil {
			return nil
		}
		current = *next
	}
	return nil
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	// Create creates a new category; ErrAlreadyExists on a slug collision
	Create(ctx context.Context, category *Category) error

	// GetByID retrieves a category by ID
	GetByID(ctx context.Context, id string) (*Category, error)

	// GetBySlug retrieves a category by slug
	GetBySlug(ctx context.Context, slug string) (*Category, error)

	// List retrieves all categories ordered by name
	List(ctx context.Context) ([]*Category, error)

	// SlugTaken reports whether a category other than excludeID uses slug
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)

	// Update updates an existing category
	Update(ctx context.Context, category *Category) error

	// Delete removes a category
	Delete(ctx context.Context, id string) error
}
