package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docshelf/internal/adapters/driven/images"
	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query       string  `json:"query" jsonschema:"what the document is about, in plain words"`
	TopK        int     `json:"top_k,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	MinScore    float64 `json:"min_score,omitempty" jsonschema:"discard results scoring below this similarity"`
	OwnerID     string  `json:"owner_id,omitempty" jsonschema:"household account to search (default: the server owner)"`
	IncludeText bool    `json:"include_text,omitempty" jsonschema:"attach each document's full text"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []domain.SearchHit `json:"results"`
	Count   int                `json:"count"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Source    string `json:"source" jsonschema:"local path or URL of the scanned document"`
	OwnerID   string `json:"owner_id,omitempty" jsonschema:"household account (default: the server owner)"`
	UserNotes string `json:"user_notes,omitempty" jsonschema:"free-text notes to keep with the document"`
	FileType  string `json:"file_type,omitempty" jsonschema:"what was scanned, e.g. image or pdf"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Status     string             `json:"status"`
	DocumentID string             `json:"document_id,omitempty"`
	ErrorID    string             `json:"error_id,omitempty"`
	Error      string             `json:"error,omitempty"`
	Assignment *domain.Assignment `json:"assignment,omitempty"`
	Steps      []string           `json:"steps"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"ID returned by search or list"`
}

// GetDocumentOutput is the output schema for the get_document tool.
type GetDocumentOutput struct {
	DocumentID string             `json:"document_id"`
	OwnerID    string             `json:"owner_id"`
	Source     string             `json:"source"`
	FileType   string             `json:"file_type"`
	Text       string             `json:"text"`
	UserNotes  string             `json:"user_notes,omitempty"`
	CreatedAt  string             `json:"created_at"`
	Assignment *domain.Assignment `json:"assignment,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find household documents by meaning and report where the paper copy is stored",
	}, s.handleSearch)

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_document",
			Description: "Read one catalogued document with its category and storage location",
		}, s.handleGetDocument)
	}

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_document",
			Description: "Catalog a scanned document: read it, assign a category and location, and index it",
		}, s.handleIngest)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		OwnerID:         s.owner(input.OwnerID),
		TopK:            input.TopK,
		MinScore:        input.MinScore,
		IncludeLocation: true,
		IncludeText:     input.IncludeText,
	}.WithDefaults()

	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	if results == nil {
		results = []domain.SearchHit{}
	}

	return nil, SearchOutput{Results: results, Count: len(results)}, nil
}

// handleGetDocument handles the get_document tool invocation.
func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, GetDocumentOutput, error) {
	if input.DocumentID == "" {
		return nil, GetDocumentOutput{}, errors.New("document_id is required")
	}

	doc, _, err := s.ports.Document.Get(ctx, input.DocumentID, false)
	if err != nil {
		return nil, GetDocumentOutput{}, fmt.Errorf("getting document: %w", err)
	}

	return nil, GetDocumentOutput{
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
		Source:     doc.Source,
		FileType:   doc.FileType,
		Text:       doc.Text,
		UserNotes:  doc.UserNotes,
		CreatedAt:  doc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Assignment: doc.Assignment,
	}, nil
}

// handleIngest handles the ingest_document tool invocation.
// Pipeline failures are reported in the output, not as tool errors.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	source := input.Source
	if !s.ports.LocalFiles {
		confined, err := images.Confine(source, s.ports.InboxDir)
		if err != nil {
			return nil, IngestOutput{}, err
		}
		source = confined
	}

	state, err := s.ports.Ingest.Ingest(ctx, domain.IngestRequest{
		Source:    source,
		OwnerID:   s.owner(input.OwnerID),
		UserNotes: input.UserNotes,
		FileType:  input.FileType,
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}

	steps := state.Steps
	if steps == nil {
		steps = []string{}
	}
	return nil, IngestOutput{
		Status:     state.Status.String(),
		DocumentID: state.DocumentID,
		ErrorID:    state.ErrorID,
		Error:      state.Error,
		Assignment: state.Assignment,
		Steps:      steps,
	}, nil
}
