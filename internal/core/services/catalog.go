package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService manages categories, locations and their mappings.
type CatalogService struct {
	categories driven.CategoryStore
	locations  driven.LocationStore
	mappings   driven.MappingStore
	engine     *AssignmentEngine
	assembler  *ResultAssembler
}

// NewCatalogService creates a catalog service.
// Category creation goes through the engine so it shares the engine's lock.
func NewCatalogService(
	categories driven.CategoryStore,
	locations driven.LocationStore,
	mappings driven.MappingStore,
	engine *AssignmentEngine,
) *CatalogService {
	return &CatalogService{
		categories: categories,
		locations:  locations,
		mappings:   mappings,
		engine:     engine,
	}
}

// SetResultAssembler makes location imports refresh the search location cache.
func (s *CatalogService) SetResultAssembler(a *ResultAssembler) {
	s.assembler = a
}

// ListCategories returns all categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

// EnsureCategory returns the category with code, creating it if missing.
func (s *CatalogService) EnsureCategory(ctx context.Context, code, name, description string) (*domain.Category, error) {
	return s.engine.EnsureCategory(ctx, code, name, description)
}

// ImportCategories ensures each category exists. Existing categories are left unchanged.
func (s *CatalogService) ImportCategories(ctx context.Context, categories []domain.Category) (int, error) {
	count := 0
	for _, c := range categories {
		if _, err := s.engine.EnsureCategory(ctx, c.Code, c.Name, c.Description); err != nil {
			return count, fmt.Errorf("import category %q: %w", c.Code, err)
		}
		count++
	}
	logger.Info("Imported %d categories", count)
	return count, nil
}

// ListLocations returns the location catalog.
func (s *CatalogService) ListLocations(ctx context.Context) ([]domain.Location, error) {
	return s.locations.List(ctx)
}

// ImportLocations upserts locations by ID.
func (s *CatalogService) ImportLocations(ctx context.Context, locations []domain.Location) (int, error) {
	count := 0
	for i := range locations {
		loc := locations[i]
		if loc.ID <= 0 || strings.TrimSpace(loc.Name) == "" {
			return count, fmt.Errorf("import location %d: %w: id and name are required", loc.ID, domain.ErrInvalidInput)
		}
		if err := s.locations.Upsert(ctx, &loc); err != nil {
			return count, fmt.Errorf("import location %d: %w", loc.ID, err)
		}
		count++
	}
	logger.Info("Imported %d locations", count)

	if s.assembler != nil {
		if err := s.assembler.Refresh(ctx); err != nil {
			logger.Warn("Location cache not refreshed: %v", err)
		}
	}
	return count, nil
}

// ListMappings returns all mappings, or those of one category when code is set.
func (s *CatalogService) ListMappings(ctx context.Context, categoryCode string) ([]domain.CategoryLocationMapping, error) {
	if categoryCode == "" {
		return s.mappings.List(ctx)
	}
	cat, err := s.categories.GetByCode(ctx, domain.NormalizeCode(categoryCode))
	if err != nil {
		return nil, fmt.Errorf("get category %q: %w", categoryCode, err)
	}
	return s.mappings.ListByCategory(ctx, cat.ID)
}

// SetMapping creates or overrides a mapping between a category and a location.
func (s *CatalogService) SetMapping(
	ctx context.Context, categoryCode string, locationID int64, priority int, allowed bool,
) error {
	cat, err := s.categories.GetByCode(ctx, domain.NormalizeCode(categoryCode))
	if err != nil {
		return fmt.Errorf("get category %q: %w", categoryCode, err)
	}
	if _, err := s.locations.Get(ctx, locationID); err != nil {
		return fmt.Errorf("get location %d: %w", locationID, err)
	}
	if priority <= 0 {
		priority = domain.DefaultMappingPriority
	}
	m := &domain.CategoryLocationMapping{
		CategoryID: cat.ID,
		LocationID: locationID,
		Priority:   priority,
		Allowed:    allowed,
	}
	if err := s.mappings.Upsert(ctx, m); err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	logger.Info("Mapped %s to location %d (priority %d, allowed %t)", cat.Code, locationID, priority, allowed)
	return nil
}
