package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docshelf/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docshelf/internal/core/domain"
)

func newTestCatalogService(locs ...domain.Location) (*CatalogService, *memory.MappingStore) {
	cats := memory.NewCategoryStore()
	locations := memory.NewLocationStore(locs...)
	mappings := memory.NewMappingStore()
	engine := NewAssignmentEngine(nil, cats, locations, mappings, nil)
	return NewCatalogService(cats, locations, mappings, engine), mappings
}

func TestCatalogService_Categories(t *testing.T) {
	svc, _ := newTestCatalogService()
	ctx := context.Background()

	cat, err := svc.EnsureCategory(ctx, "med", "", "")
	require.NoError(t, err)
	assert.Equal(t, "MED", cat.Code)

	n, err := svc.ImportCategories(ctx, []domain.Category{
		{Code: "MED", Name: "ignored"},
		{Code: "PETS", Name: "Pet Records"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "PETS", cats[1].Code)
	assert.Equal(t, "Pet Records", cats[1].Name)
}

func TestCatalogService_ImportCategoriesRejectsBadCode(t *testing.T) {
	svc, _ := newTestCatalogService()

	n, err := svc.ImportCategories(context.Background(), []domain.Category{{Code: "OK"}, {Code: "bad code"}})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, n)
}

func TestCatalogService_ImportLocations(t *testing.T) {
	svc, _ := newTestCatalogService()
	ctx := context.Background()
	store := memory.NewDocumentStore()
	assembler := NewResultAssembler(store, svc.locations)
	svc.SetResultAssembler(assembler)

	n, err := svc.ImportLocations(ctx, []domain.Location{taxOffice, kitchen})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	updated := kitchen
	updated.Description = "Top shelf"
	_, err = svc.ImportLocations(ctx, []domain.Location{updated})
	require.NoError(t, err)

	locs, err := svc.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "Top shelf", locs[1].Description)

	_, err = svc.ImportLocations(ctx, []domain.Location{{ID: 0, Name: "No ID"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCatalogService_SetMapping(t *testing.T) {
	svc, mappings := newTestCatalogService(taxOffice, kitchen)
	ctx := context.Background()
	cat, err := svc.EnsureCategory(ctx, "TAX", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.SetMapping(ctx, "tax", 2, 0, true))
	require.NoError(t, svc.SetMapping(ctx, "TAX", 2, 9, false))

	list, err := svc.ListMappings(ctx, "TAX")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, cat.ID, list[0].CategoryID)
	assert.Equal(t, 9, list[0].Priority)
	assert.False(t, list[0].Allowed)

	all, err := mappings.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCatalogService_SetMappingUnknown(t *testing.T) {
	svc, _ := newTestCatalogService(taxOffice)
	ctx := context.Background()
	_, err := svc.EnsureCategory(ctx, "TAX", "", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.SetMapping(ctx, "NOPE", 1, 8, true), domain.ErrNotFound)
	assert.ErrorIs(t, svc.SetMapping(ctx, "TAX", 99, 8, true), domain.ErrNotFound)
	_, err = svc.ListMappings(ctx, "NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalogService_DefaultPriority(t *testing.T) {
	svc, _ := newTestCatalogService(taxOffice)
	ctx := context.Background()
	_, err := svc.EnsureCategory(ctx, "TAX", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.SetMapping(ctx, "TAX", 1, 0, true))

	list, err := svc.ListMappings(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.DefaultMappingPriority, list[0].Priority)
}
