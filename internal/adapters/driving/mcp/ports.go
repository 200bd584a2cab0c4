package mcp

import (
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search ranks catalogued documents.
	Search driving.SearchService

	// Ingest catalogs new scans. Optional; the ingest tool is hidden without it.
	Ingest driving.IngestService

	// Document reads catalogued documents.
	Document driving.DocumentService

	// Catalog lists categories and locations.
	Catalog driving.CatalogService

	// DefaultOwner scopes tool calls that do not name an owner.
	DefaultOwner string

	// InboxDir confines local ingest sources. Empty accepts URLs only,
	// unless LocalFiles is set.
	InboxDir string

	// LocalFiles accepts any local path. Only for stdio, where the client
	// already runs as the same user.
	LocalFiles bool
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Ingest, Document and Catalog are optional
	return nil
}
