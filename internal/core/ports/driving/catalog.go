package driving

import (
	"context"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// CatalogService manages categories, locations and their mappings.
type CatalogService interface {
	// ListCategories returns all categories.
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// EnsureCategory returns the category with code, creating it if missing.
	EnsureCategory(ctx context.Context, code, name, description string) (*domain.Category, error)

	// ImportCategories ensures each category exists.
	ImportCategories(ctx context.Context, categories []domain.Category) (int, error)

	// ListLocations returns the location catalog.
	ListLocations(ctx context.Context) ([]domain.Location, error)

	// ImportLocations upserts locations into the catalog.
	ImportLocations(ctx context.Context, locations []domain.Location) (int, error)

	// ListMappings returns mappings, for one category when code is set.
	ListMappings(ctx context.Context, categoryCode string) ([]domain.CategoryLocationMapping, error)

	// SetMapping creates or overrides a category to location mapping.
	SetMapping(ctx context.Context, categoryCode string, locationID int64, priority int, allowed bool) error
}
