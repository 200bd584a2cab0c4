package driven

import (
	"context"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// CategoryStore persists categories. Categories are never deleted.
type CategoryStore interface {
	// List returns all categories ordered by ID.
	List(ctx context.Context) ([]domain.Category, error)

	// GetByCode retrieves a category by its exact code.
	GetByCode(ctx context.Context, code string) (*domain.Category, error)

	// Create inserts a category. If the code already exists the existing
	// row is returned unchanged.
	Create(ctx context.Context, cat *domain.Category) (*domain.Category, error)
}

// LocationStore holds the imported storage location catalog.
type LocationStore interface {
	// List returns locations in catalog order.
	List(ctx context.Context) ([]domain.Location, error)

	// Get retrieves a location by ID.
	Get(ctx context.Context, id int64) (*domain.Location, error)

	// Upsert inserts or replaces a location keyed by its ID.
	Upsert(ctx context.Context, loc *domain.Location) error
}

// MappingStore persists category to location affinities.
type MappingStore interface {
	// List returns every mapping.
	List(ctx context.Context) ([]domain.CategoryLocationMapping, error)

	// ListByCategory returns mappings for one category.
	ListByCategory(ctx context.Context, categoryID int64) ([]domain.CategoryLocationMapping, error)

	// Create inserts a mapping. An existing (category, location) pair is left as is.
	Create(ctx context.Context, m *domain.CategoryLocationMapping) error

	// Upsert inserts a mapping or updates priority and allowed on an existing pair.
	Upsert(ctx context.Context, m *domain.CategoryLocationMapping) error
}
