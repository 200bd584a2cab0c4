package api

import (
	"time"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// IngestRequest is the body of POST /documents.
type IngestRequest struct {
	Source     string `json:"source"`
	OwnerID    string `json:"owner_id,omitempty"`
	UserNotes  string `json:"user_notes,omitempty"`
	FileType   string `json:"file_type,omitempty"`
	DryRun     bool   `json:"dry_run,omitempty"`
	SkipRemote bool   `json:"skip_remote,omitempty"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query       string  `json:"query"`
	TopK        int     `json:"top_k,omitempty"`
	MinScore    float64 `json:"min_score,omitempty"`
	OwnerID     string  `json:"owner_id,omitempty"`
	AllOwners   bool    `json:"all_owners,omitempty"`
	IncludeText bool    `json:"include_text,omitempty"`
}

// SearchResponse wraps ranked hits.
type SearchResponse struct {
	Query   string             `json:"query"`
	Results []domain.SearchHit `json:"results"`
	Count   int                `json:"count"`
}

// IngestResponse reports the outcome of one pipeline run.
type IngestResponse struct {
	Status     string             `json:"status"`
	DocumentID string             `json:"document_id,omitempty"`
	ErrorID    string             `json:"error_id,omitempty"`
	RemoteID   string             `json:"remote_id,omitempty"`
	FailedStep string             `json:"failed_step,omitempty"`
	Error      string             `json:"error,omitempty"`
	Assignment *domain.Assignment `json:"assignment,omitempty"`
	Dimension  int                `json:"embedding_dimension,omitempty"`
	Steps      []string           `json:"steps"`
}

func ingestResponse(state *domain.IngestState) IngestResponse {
	steps := state.Steps
	if steps == nil {
		steps = []string{}
	}
	resp := IngestResponse{
		Status:     state.Status.String(),
		DocumentID: state.DocumentID,
		ErrorID:    state.ErrorID,
		RemoteID:   state.RemoteID,
		Error:      state.Error,
		Assignment: state.Assignment,
		Dimension:  len(state.Embedding),
		Steps:      steps,
	}
	if state.Status.IsFailure() {
		resp.FailedStep = state.Status.FailedStep()
	}
	return resp
}

// EntryView is one row of a document listing.
type EntryView struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
	Searchable   bool      `json:"searchable"`
	Preview      string    `json:"preview"`
	CategoryCode string    `json:"category_code,omitempty"`
	LocationName string    `json:"location_name,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
}

func entryView(e domain.IndexEntry) EntryView {
	return EntryView{
		ID:           e.ID,
		OwnerID:      e.OwnerID,
		CreatedAt:    e.CreatedAt,
		Searchable:   e.HasEmbedding,
		Preview:      e.TextPreview,
		CategoryCode: e.CategoryCode,
		LocationName: e.LocationName,
		Tags:         e.Tags,
	}
}

// DocumentView is a full document record.
type DocumentView struct {
	ID            string             `json:"id"`
	OwnerID       string             `json:"owner_id"`
	Source        string             `json:"source"`
	FileType      string             `json:"file_type,omitempty"`
	UserNotes     string             `json:"user_notes,omitempty"`
	Text          string             `json:"text"`
	RawText       string             `json:"raw_text,omitempty"`
	OCRConfidence float64            `json:"ocr_confidence"`
	Status        string             `json:"status"`
	Steps         []string           `json:"steps"`
	Assignment    *domain.Assignment `json:"assignment,omitempty"`
	Searchable    bool               `json:"searchable"`
	CreatedAt     time.Time          `json:"created_at"`
	Embedding     []float32          `json:"embedding,omitempty"`
}

func documentView(rec *domain.DocumentRecord, embedding []float32) DocumentView {
	steps := rec.Steps
	if steps == nil {
		steps = []string{}
	}
	return DocumentView{
		ID:            rec.ID,
		OwnerID:       rec.OwnerID,
		Source:        rec.Source,
		FileType:      rec.FileType,
		UserNotes:     rec.UserNotes,
		Text:          rec.Text,
		RawText:       rec.RawText,
		OCRConfidence: rec.OCRConfidence,
		Status:        rec.Status.String(),
		Steps:         steps,
		Assignment:    rec.Assignment,
		Searchable:    rec.HasEmbedding,
		CreatedAt:     rec.CreatedAt,
		Embedding:     embedding,
	}
}

// FailedView is a document whose ingestion failed.
type FailedView struct {
	DocumentView
	FailedStep   string    `json:"failed_step"`
	ErrorMessage string    `json:"error_message"`
	FailedAt     time.Time `json:"failed_at"`
}

func failedView(doc *domain.ErrorDocument) FailedView {
	return FailedView{
		DocumentView: documentView(&doc.DocumentRecord, nil),
		FailedStep:   doc.FailedStep,
		ErrorMessage: doc.ErrorMessage,
		FailedAt:     doc.FailedAt,
	}
}

// CategoryView is one category.
type CategoryView struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// MappingView is one category to location mapping.
type MappingView struct {
	CategoryID int64 `json:"category_id"`
	LocationID int64 `json:"location_id"`
	Priority   int   `json:"priority"`
	Allowed    bool  `json:"allowed"`
}
