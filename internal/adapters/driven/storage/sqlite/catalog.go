package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
)

// ==================== Category Store ====================

// categoryStore implements driven.CategoryStore.
type categoryStore struct {
	store *Store
}

var _ driven.CategoryStore = (*categoryStore)(nil)

// List returns all categories ordered by ID.
func (c *categoryStore) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT id, code, name, description, created_at, updated_at
		FROM categories ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category //nolint:prealloc // size unknown from query
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(&cat.ID, &cat.Code, &cat.Name, &cat.Description,
			&cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

// GetByCode retrieves a category by its exact code.
func (c *categoryStore) GetByCode(ctx context.Context, code string) (*domain.Category, error) {
	var cat domain.Category
	err := c.store.db.QueryRowContext(ctx, `
		SELECT id, code, name, description, created_at, updated_at
		FROM categories WHERE code = ?
	`, code).Scan(&cat.ID, &cat.Code, &cat.Name, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return &cat, nil
}

// Create inserts a category. The unique code constraint makes concurrent
// creates of the same code converge on one row.
func (c *categoryStore) Create(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	now := time.Now().UTC()
	if _, err := c.store.db.ExecContext(ctx, `
		INSERT INTO categories (code, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(code) DO NOTHING
	`, cat.Code, cat.Name, cat.Description, now, now); err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}
	return c.GetByCode(ctx, cat.Code)
}

// ==================== Location Store ====================

// locationStore implements driven.LocationStore.
type locationStore struct {
	store *Store
}

var _ driven.LocationStore = (*locationStore)(nil)

// List returns locations ordered by catalog ID.
func (l *locationStore) List(ctx context.Context) ([]domain.Location, error) {
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT id, name, description, photo_url, parent_id FROM locations ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var locations []domain.Location //nolint:prealloc // size unknown from query
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Description, &loc.PhotoURL, &loc.ParentID); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// Get retrieves a location by ID.
func (l *locationStore) Get(ctx context.Context, id int64) (*domain.Location, error) {
	var loc domain.Location
	err := l.store.db.QueryRowContext(ctx, `
		SELECT id, name, description, photo_url, parent_id FROM locations WHERE id = ?
	`, id).Scan(&loc.ID, &loc.Name, &loc.Description, &loc.PhotoURL, &loc.ParentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting location: %w", err)
	}
	return &loc, nil
}

// Upsert inserts or replaces a location keyed by its ID.
func (l *locationStore) Upsert(ctx context.Context, loc *domain.Location) error {
	_, err := l.store.db.ExecContext(ctx, `
		INSERT INTO locations (id, name, description, photo_url, parent_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			photo_url = excluded.photo_url,
			parent_id = excluded.parent_id
	`, loc.ID, loc.Name, loc.Description, loc.PhotoURL, loc.ParentID)
	if err != nil {
		return fmt.Errorf("saving location: %w", err)
	}
	return nil
}

// ==================== Mapping Store ====================

// mappingStore implements driven.MappingStore.
type mappingStore struct {
	store *Store
}

var _ driven.MappingStore = (*mappingStore)(nil)

const mappingColumns = "id, category_id, location_id, priority, allowed, created_at, updated_at"

// List returns every mapping in creation order.
func (m *mappingStore) List(ctx context.Context) ([]domain.CategoryLocationMapping, error) {
	return m.query(ctx, "SELECT "+mappingColumns+" FROM category_location_mappings ORDER BY id")
}

// ListByCategory returns mappings for one category in creation order.
func (m *mappingStore) ListByCategory(ctx context.Context, categoryID int64) ([]domain.CategoryLocationMapping, error) {
	return m.query(ctx, "SELECT "+mappingColumns+
		" FROM category_location_mappings WHERE category_id = ? ORDER BY id", categoryID)
}

// Create inserts a mapping, leaving an existing pair untouched.
func (m *mappingStore) Create(ctx context.Context, mapping *domain.CategoryLocationMapping) error {
	now := time.Now().UTC()
	_, err := m.store.db.ExecContext(ctx, `
		INSERT INTO category_location_mappings
			(category_id, location_id, priority, allowed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(category_id, location_id) DO NOTHING
	`, mapping.CategoryID, mapping.LocationID, mapping.Priority, mapping.Allowed, now, now)
	if err != nil {
		return fmt.Errorf("creating mapping: %w", err)
	}
	return nil
}

// Upsert inserts a mapping or updates priority and allowed on an existing pair.
func (m *mappingStore) Upsert(ctx context.Context, mapping *domain.CategoryLocationMapping) error {
	now := time.Now().UTC()
	_, err := m.store.db.ExecContext(ctx, `
		INSERT INTO category_location_mappings
			(category_id, location_id, priority, allowed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(category_id, location_id) DO UPDATE SET
			priority = excluded.priority,
			allowed = excluded.allowed,
			updated_at = excluded.updated_at
	`, mapping.CategoryID, mapping.LocationID, mapping.Priority, mapping.Allowed, now, now)
	if err != nil {
		return fmt.Errorf("saving mapping: %w", err)
	}
	return nil
}

func (m *mappingStore) query(ctx context.Context, query string, args ...any) ([]domain.CategoryLocationMapping, error) {
	rows, err := m.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}
	defer rows.Close()

	var mappings []domain.CategoryLocationMapping //nolint:prealloc // size unknown from query
	for rows.Next() {
		var mapping domain.CategoryLocationMapping
		if err := rows.Scan(&mapping.ID, &mapping.CategoryID, &mapping.LocationID,
			&mapping.Priority, &mapping.Allowed, &mapping.CreatedAt, &mapping.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning mapping: %w", err)
		}
		mappings = append(mappings, mapping)
	}
	return mappings, rows.Err()
}
