// Package tui provides an interactive terminal user interface for docshelf.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
type Ports struct {
	// Search ranks documents against a query.
	Search driving.SearchService

	// Document lists, shows and deletes catalogued and failed documents.
	Document driving.DocumentService

	// Ingest retries failed documents. Optional.
	Ingest driving.IngestService

	// Owner scopes searches and listings.
	Owner string
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	search driving.SearchService,
	document driving.DocumentService,
	ingest driving.IngestService,
	owner string,
) *Ports {
	return &Ports{
		Search:   search,
		Document: document,
		Ingest:   ingest,
		Owner:    owner,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
