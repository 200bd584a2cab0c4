package driven

import (
	"context"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// Classifier proposes a category and storage location for document text.
type Classifier interface {
	// Classify returns a proposal given the current catalogs.
	Classify(ctx context.Context, text string, categories []domain.Category, locations []domain.Location) (*domain.Proposal, error)
}
