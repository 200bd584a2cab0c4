package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// ResultAssembler turns ranked IDs into presentation records.
// The location catalog is cached after first use; Refresh reloads it.
type ResultAssembler struct {
	store     driven.DocumentStore
	locations driven.LocationStore

	mu        sync.RWMutex
	locByID   map[int64]domain.Location
	locLoaded bool
}

// NewResultAssembler creates a result assembler.
// The location store may be nil; hits then use the stored location name.
func NewResultAssembler(store driven.DocumentStore, locations driven.LocationStore) *ResultAssembler {
	return &ResultAssembler{store: store, locations: locations}
}

// Refresh reloads the location cache.
func (a *ResultAssembler) Refresh(ctx context.Context) error {
	if a.locations == nil {
		return nil
	}
	locs, err := a.locations.List(ctx)
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	byID := make(map[int64]domain.Location, len(locs))
	for _, l := range locs {
		byID[l.ID] = l
	}

	a.mu.Lock()
	a.locByID = byID
	a.locLoaded = true
	a.mu.Unlock()
	return nil
}

// Assemble loads each ranked document in order and builds its hit.
// Documents that cannot be loaded are skipped.
func (a *ResultAssembler) Assemble(ctx context.Context, ranked []domain.RankedResult, opts domain.SearchOptions) []domain.SearchHit {
	if opts.IncludeLocation {
		a.ensureLocations(ctx)
	}

	hits := make([]domain.SearchHit, 0, len(ranked))
	for _, r := range ranked {
		rec, _, err := a.store.Get(ctx, r.ID, false)
		if err != nil {
			logger.Warn("Skipping result %s: %v", r.ID, err)
			continue
		}
		hit := domain.SearchHit{
			DocumentID: rec.ID,
			Score:      r.Score,
			Title:      domain.Truncate(rec.Text, domain.TitleLength),
			Snippet:    domain.Truncate(rec.Text, domain.SnippetLength),
			Preview:    rec.ImagePath,
			FileType:   rec.FileType,
		}
		if hit.Preview == "" {
			hit.Preview = rec.Source
		}
		if hit.FileType == "" {
			hit.FileType = domain.DefaultFileType
		}
		if !rec.CreatedAt.IsZero() {
			hit.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
		}
		if rec.Assignment != nil {
			hit.Category = rec.Assignment.CategoryCode
		}
		if opts.IncludeLocation {
			hit.Location = a.locationFor(rec.Assignment)
		}
		if opts.IncludeText {
			hit.FullText = rec.Text
			hit.Source = rec.Source
			hit.Assignment = rec.Assignment
		}
		hits = append(hits, hit)
	}
	return hits
}

func (a *ResultAssembler) ensureLocations(ctx context.Context) {
	a.mu.RLock()
	loaded := a.locLoaded
	a.mu.RUnlock()
	if loaded {
		return
	}
	if err := a.Refresh(ctx); err != nil {
		logger.Warn("Location cache unavailable: %v", err)
	}
}

func (a *ResultAssembler) locationFor(assignment *domain.Assignment) *domain.LocationInfo {
	if assignment == nil {
		return nil
	}
	if assignment.LocationID != 0 {
		a.mu.RLock()
		loc, ok := a.locByID[assignment.LocationID]
		a.mu.RUnlock()
		if ok {
			return loc.Info()
		}
	}
	if assignment.LocationName != "" {
		return &domain.LocationInfo{ID: assignment.LocationID, Name: assignment.LocationName}
	}
	return nil
}
