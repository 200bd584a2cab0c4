package driving

import (
	"context"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// DocumentService manages catalogued and failed documents.
type DocumentService interface {
	// List returns index entries for an owner, or all when owner is empty.
	List(ctx context.Context, ownerID string) ([]domain.IndexEntry, error)

	// Get retrieves a document, optionally with its embedding.
	Get(ctx context.Context, id string, includeEmbedding bool) (*domain.DocumentRecord, []float32, error)

	// Delete removes a document and its image. Returns ErrNotFound when unknown.
	Delete(ctx context.Context, id string) error

	// ListFailed returns documents whose ingestion failed.
	ListFailed(ctx context.Context) ([]domain.ErrorDocument, error)

	// GetFailed retrieves one failed document.
	GetFailed(ctx context.Context, id string) (*domain.ErrorDocument, error)

	// DeleteFailed discards a failed document.
	DeleteFailed(ctx context.Context, id string) error
}
