package driving

import (
	"context"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// MaintenanceService repairs and upgrades the document index.
type MaintenanceService interface {
	// Reindex re-embeds every document with the current model.
	// force allows the index dimension to change.
	Reindex(ctx context.Context, ownerID string, force bool) (*domain.ReindexStats, error)

	// Verify reports index inconsistencies.
	Verify(ctx context.Context) (*domain.IntegrityReport, error)

	// MigrateInlineEmbeddings moves legacy inline vectors into their own records.
	MigrateInlineEmbeddings(ctx context.Context, dryRun bool) (*domain.MigrationStats, error)
}
