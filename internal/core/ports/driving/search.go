package driving

import (
	"context"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search ranks documents against a free-text query.
	// Failures inside the pipeline yield an empty list, not an error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error)
}
