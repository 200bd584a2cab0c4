package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

func TestCategoryStore_CreateIsIdempotent(t *testing.T) {
	store := NewCategoryStore()
	ctx := context.Background()

	first, err := store.Create(ctx, &domain.Category{Code: "TAX", Name: "Tax"})
	require.NoError(t, err)
	second, err := store.Create(ctx, &domain.Category{Code: "TAX", Name: "Other"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Tax", second.Name)

	all, _ := store.List(ctx)
	assert.Len(t, all, 1)

	_, err = store.GetByCode(ctx, "BANK")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLocationStore_Upsert(t *testing.T) {
	store := NewLocationStore(domain.Location{ID: 1, Name: "Desk"})
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &domain.Location{ID: 1, Name: "Desk drawer"}))
	require.NoError(t, store.Upsert(ctx, &domain.Location{ID: 2, Name: "Safe"}))

	locs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "Desk drawer", locs[0].Name)

	loc, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Safe", loc.Name)
}

func TestMappingStore_CreateAndUpsert(t *testing.T) {
	store := NewMappingStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &domain.CategoryLocationMapping{CategoryID: 1, LocationID: 2, Priority: 8, Allowed: true}))
	require.NoError(t, store.Create(ctx, &domain.CategoryLocationMapping{CategoryID: 1, LocationID: 2, Priority: 1, Allowed: false}))

	got, err := store.ListByCategory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 8, got[0].Priority)

	require.NoError(t, store.Upsert(ctx, &domain.CategoryLocationMapping{CategoryID: 1, LocationID: 2, Priority: 3, Allowed: false}))
	got, _ = store.ListByCategory(ctx, 1)
	assert.Equal(t, 3, got[0].Priority)
	assert.False(t, got[0].Allowed)
}
