package driven

import (
	"context"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// ErrorStore keeps documents whose ingestion failed.
type ErrorStore interface {
	// Save stores a failed document and returns its ID.
	Save(ctx context.Context, doc *domain.ErrorDocument) (string, error)

	// Get retrieves a failed document by ID.
	Get(ctx context.Context, id string) (*domain.ErrorDocument, error)

	// List returns failed documents, newest first.
	List(ctx context.Context) ([]domain.ErrorDocument, error)

	// Delete removes a failed document.
	Delete(ctx context.Context, id string) error
}
