// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Results []domain.SearchHit
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewDocuments lists catalogued documents.
	ViewDocuments
	// ViewFailed lists documents whose ingestion failed.
	ViewFailed
	// ViewDocDetails shows one document.
	ViewDocDetails
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewDocuments:
		return "documents"
	case ViewFailed:
		return "failed"
	case ViewDocDetails:
		return "doc_details"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the index entries for the owner.
type DocumentsLoaded struct {
	Entries []domain.IndexEntry
	Err     error
}

// DocumentRequested asks the app to load and show a document.
// Back is the view to return to from the details view.
type DocumentRequested struct {
	ID   string
	Back ViewType
}

// DocumentLoaded carries a full document record.
type DocumentLoaded struct {
	Document *domain.DocumentRecord
	Failure  *domain.ErrorDocument
	Err      error
}

// DocumentDeleted signals a document was deleted.
type DocumentDeleted struct {
	ID  string
	Err error
}

// FailedLoaded carries the documents whose ingestion failed.
type FailedLoaded struct {
	Documents []domain.ErrorDocument
	Err       error
}

// RetryCompleted carries the outcome of retrying a failed document.
type RetryCompleted struct {
	ErrorID string
	State   *domain.IngestState
	Err     error
}

// FailedDeleted signals a failed document was discarded.
type FailedDeleted struct {
	ID  string
	Err error
}
