package driving

import (
	"context"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// IngestService turns a scanned document into a catalogued record.
type IngestService interface {
	// Ingest runs the full pipeline. The returned state is always non-nil;
	// the error is only set for an invalid request.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestState, error)

	// Retry re-runs a failed document from its stored text.
	Retry(ctx context.Context, errorID string) (*domain.IngestState, error)
}
