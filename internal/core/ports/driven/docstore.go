package driven

import (
	"context"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// DocumentStore persists document bodies, their embeddings and the index.
// Default implementation is SQLite; a JSON file layout is also available.
type DocumentStore interface {
	// Save assigns a fresh ID and stores the body, the embedding (when
	// non-empty) and the index entry. It returns the new ID.
	// An embedding whose length differs from Dimension returns ErrDimensionMismatch.
	Save(ctx context.Context, rec *domain.DocumentRecord, embedding []float32) (string, error)

	// Get retrieves a document by ID. The embedding is only loaded when
	// includeEmbedding is true and is empty when none was stored.
	Get(ctx context.Context, id string, includeEmbedding bool) (*domain.DocumentRecord, []float32, error)

	// GetEmbedding retrieves only the vector for a document.
	GetEmbedding(ctx context.Context, id string) ([]float32, error)

	// SaveEmbedding replaces the vector for an existing document.
	SaveEmbedding(ctx context.Context, id string, embedding []float32) error

	// ListAll returns index entries in insertion order.
	// An empty ownerID lists every owner.
	ListAll(ctx context.Context, ownerID string) ([]domain.IndexEntry, error)

	// GetAllWithEmbeddings loads every embedded document for scoring.
	// Entries whose body or vector is missing are skipped.
	GetAllWithEmbeddings(ctx context.Context, ownerID string) ([]domain.EmbeddedDocument, error)

	// Delete removes the body, embedding and index entry.
	// It returns false when the ID is unknown.
	Delete(ctx context.Context, id string) (bool, error)

	// Dimension returns the index-wide embedding dimension, 0 when unset.
	Dimension(ctx context.Context) (int, error)

	// ResetDimension clears the fixed dimension so a re-embed may change it.
	ResetDimension(ctx context.Context) error

	// Verify reports inconsistencies between the index and stored artefacts.
	Verify(ctx context.Context) (*domain.IntegrityReport, error)
}

// EmbeddingMigrator is implemented by stores that can move legacy inline
// embeddings out of document bodies.
type EmbeddingMigrator interface {
	MigrateInlineEmbeddings(ctx context.Context, dryRun bool) (*domain.MigrationStats, error)
}
