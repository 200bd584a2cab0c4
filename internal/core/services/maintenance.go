package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// Ensure MaintenanceService implements the interface.
var _ driving.MaintenanceService = (*MaintenanceService)(nil)

// DefaultReindexWorkers bounds concurrent embedding calls during reindex.
const DefaultReindexWorkers = 4

// MaintenanceService re-embeds, verifies and migrates the document index.
type MaintenanceService struct {
	store     driven.DocumentStore
	embedding driven.EmbeddingService
	retry     *RetryPolicy
	workers   int
}

// NewMaintenanceService creates a maintenance service.
// The embedding service is only needed by Reindex.
func NewMaintenanceService(
	store driven.DocumentStore,
	embedding driven.EmbeddingService,
	retry *RetryPolicy,
) *MaintenanceService {
	if retry == nil {
		retry = NewRetryPolicy(domain.RetrySettings{})
	}
	return &MaintenanceService{
		store:     store,
		embedding: embedding,
		retry:     retry,
		workers:   DefaultReindexWorkers,
	}
}

// SetWorkers changes the reindex parallelism.
func (s *MaintenanceService) SetWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// Reindex re-embeds every document of an owner, or all documents when owner is empty.
//
// Without force a model whose dimension differs from the index fails with
// ErrDimensionMismatch before anything is written. With force the index
// dimension is reset; this requires every document and aborts if any fails.
func (s *MaintenanceService) Reindex(ctx context.Context, ownerID string, force bool) (*domain.ReindexStats, error) {
	if s.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if force && ownerID != "" {
		return nil, fmt.Errorf("%w: forced reindex must cover every owner", domain.ErrInvalidInput)
	}

	logger.Section("Reindex")
	entries, err := s.store.ListAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	stats := &domain.ReindexStats{Total: len(entries)}
	logger.Info("Re-embedding %d documents with %s", len(entries), s.embedding.ModelName())

	var (
		mu      sync.Mutex
		vectors = make(map[string][]float32, len(entries))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, entry := range entries {
		id := entry.ID
		g.Go(func() error {
			vec, err := s.embedDocument(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				stats.Failed++
				logger.Warn("Re-embedding %s failed: %v", id, err)
				return nil
			}
			vectors[id] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("reindex: %w", err)
	}

	if len(vectors) == 0 {
		return stats, nil
	}

	newDim := 0
	for _, v := range vectors {
		if newDim == 0 {
			newDim = len(v)
		} else if len(v) != newDim {
			return stats, fmt.Errorf("reindex: %w: model returned mixed dimensions", domain.ErrDimensionMismatch)
		}
	}

	current, err := s.store.Dimension(ctx)
	if err != nil {
		return stats, fmt.Errorf("read index dimension: %w", err)
	}
	if current != 0 && current != newDim {
		if !force {
			return stats, fmt.Errorf("reindex: %w: index has %d, model returns %d (use force)",
				domain.ErrDimensionMismatch, current, newDim)
		}
		if stats.Failed > 0 {
			return stats, fmt.Errorf("reindex aborted: %d documents failed, dimension left at %d", stats.Failed, current)
		}
		if err := s.store.ResetDimension(ctx); err != nil {
			return stats, fmt.Errorf("reset index dimension: %w", err)
		}
		logger.Info("Index dimension reset from %d to %d", current, newDim)
	}

	// Written in listing order.
	for _, entry := range entries {
		vec, ok := vectors[entry.ID]
		if !ok {
			continue
		}
		if err := s.store.SaveEmbedding(ctx, entry.ID, vec); err != nil {
			stats.Failed++
			logger.Warn("Saving embedding for %s failed: %v", entry.ID, err)
			continue
		}
		stats.Reindexed++
	}

	logger.Info("Reindexed %d of %d documents (%d failed)", stats.Reindexed, stats.Total, stats.Failed)
	return stats, nil
}

func (s *MaintenanceService) embedDocument(ctx context.Context, id string) ([]float32, error) {
	rec, _, err := s.store.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	text := rec.Text
	if strings.TrimSpace(text) == "" {
		text = rec.RawText
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document has no text", domain.ErrInvalidInput)
	}

	var vec []float32
	err = s.retry.Do(ctx, "reindex", func(ctx context.Context) error {
		v, err := s.embedding.Embed(ctx, text)
		if err != nil {
			return err
		}
		if len(v) == 0 {
			return errors.New("empty embedding vector")
		}
		vec = v
		return nil
	})
	return vec, err
}

// Verify reports index inconsistencies.
func (s *MaintenanceService) Verify(ctx context.Context) (*domain.IntegrityReport, error) {
	report, err := s.store.Verify(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify index: %w", err)
	}
	if report.Clean() {
		logger.Info("Index is consistent")
	} else {
		logger.Warn("Index has %d orphan entries, %d unindexed bodies, %d missing embeddings",
			len(report.OrphanEntries), len(report.MissingEntries), len(report.MissingEmbeddings))
	}
	return report, nil
}

// MigrateInlineEmbeddings moves legacy inline vectors into embedding records.
// Stores without a legacy layout report nothing to migrate.
func (s *MaintenanceService) MigrateInlineEmbeddings(ctx context.Context, dryRun bool) (*domain.MigrationStats, error) {
	migrator, ok := s.store.(driven.EmbeddingMigrator)
	if !ok {
		logger.Info("Storage backend has no inline embeddings to migrate")
		return &domain.MigrationStats{}, nil
	}
	stats, err := migrator.MigrateInlineEmbeddings(ctx, dryRun)
	if err != nil {
		return stats, fmt.Errorf("migrate embeddings: %w", err)
	}
	return stats, nil
}
