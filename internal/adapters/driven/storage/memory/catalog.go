package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
)

// Ensure catalog stores implement the interfaces.
var (
	_ driven.CategoryStore = (*CategoryStore)(nil)
	_ driven.LocationStore = (*LocationStore)(nil)
	_ driven.MappingStore  = (*MappingStore)(nil)
)

// CategoryStore is an in-memory implementation of driven.CategoryStore.
type CategoryStore struct {
	mu         sync.RWMutex
	categories []domain.Category
	nextID     int64
}

// NewCategoryStore creates a new in-memory category store.
func NewCategoryStore() *CategoryStore {
	return &CategoryStore{nextID: 1}
}

// List returns all categories in creation order.
func (s *CategoryStore) List(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Category(nil), s.categories...), nil
}

// GetByCode retrieves a category by code.
func (s *CategoryStore) GetByCode(_ context.Context, code string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Create inserts a category unless the code exists.
func (s *CategoryStore) Create(_ context.Context, cat *domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Code == cat.Code {
			return &c, nil
		}
	}
	now := time.Now()
	created := *cat
	created.ID = s.nextID
	created.CreatedAt = now
	created.UpdatedAt = now
	s.nextID++
	s.categories = append(s.categories, created)
	return &created, nil
}

// LocationStore is an in-memory implementation of driven.LocationStore.
type LocationStore struct {
	mu        sync.RWMutex
	locations []domain.Location
}

// NewLocationStore creates a location store seeded with locs.
func NewLocationStore(locs ...domain.Location) *LocationStore {
	return &LocationStore{locations: append([]domain.Location(nil), locs...)}
}

// List returns locations in catalog order.
func (s *LocationStore) List(_ context.Context) ([]domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Location(nil), s.locations...), nil
}

// Get retrieves a location by ID.
func (s *LocationStore) Get(_ context.Context, id int64) (*domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.locations {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Upsert inserts or replaces a location.
func (s *LocationStore) Upsert(_ context.Context, loc *domain.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.locations {
		if l.ID == loc.ID {
			s.locations[i] = *loc
			return nil
		}
	}
	s.locations = append(s.locations, *loc)
	return nil
}

// MappingStore is an in-memory implementation of driven.MappingStore.
type MappingStore struct {
	mu       sync.RWMutex
	mappings []domain.CategoryLocationMapping
	nextID   int64
}

// NewMappingStore creates a new in-memory mapping store.
func NewMappingStore() *MappingStore {
	return &MappingStore{nextID: 1}
}

// List returns every mapping.
func (s *MappingStore) List(_ context.Context) ([]domain.CategoryLocationMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CategoryLocationMapping(nil), s.mappings...), nil
}

// ListByCategory returns mappings for one category.
func (s *MappingStore) ListByCategory(_ context.Context, categoryID int64) ([]domain.CategoryLocationMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.CategoryLocationMapping
	for _, m := range s.mappings {
		if m.CategoryID == categoryID {
			result = append(result, m)
		}
	}
	return result, nil
}

// Create inserts a mapping unless the pair exists.
func (s *MappingStore) Create(_ context.Context, m *domain.CategoryLocationMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(m.CategoryID, m.LocationID) >= 0 {
		return nil
	}
	s.insert(m)
	return nil
}

// Upsert inserts a mapping or updates an existing pair.
func (s *MappingStore) Upsert(_ context.Context, m *domain.CategoryLocationMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(m.CategoryID, m.LocationID); i >= 0 {
		s.mappings[i].Priority = m.Priority
		s.mappings[i].Allowed = m.Allowed
		s.mappings[i].UpdatedAt = time.Now()
		return nil
	}
	s.insert(m)
	return nil
}

func (s *MappingStore) indexOf(categoryID, locationID int64) int {
	for i, m := range s.mappings {
		if m.CategoryID == categoryID && m.LocationID == locationID {
			return i
		}
	}
	return -1
}

func (s *MappingStore) insert(m *domain.CategoryLocationMapping) {
	now := time.Now()
	created := *m
	created.ID = s.nextID
	created.CreatedAt = now
	created.UpdatedAt = now
	s.nextID++
	s.mappings = append(s.mappings, created)
}
