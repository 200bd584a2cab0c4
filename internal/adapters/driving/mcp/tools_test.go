package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			results: []domain.SearchHit{
				{
					DocumentID: "doc-1",
					Title:      "Form W-2 Wage and Tax Statement",
					Score:      0.95,
					Category:   "Tax Documents",
					Location:   &domain.LocationInfo{ID: 1, Name: "Office filing cabinet"},
				},
			},
		}

		ports := &Ports{Search: mockSearch, DefaultOwner: "alice"}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := SearchInput{Query: "w2", TopK: 3, IncludeText: true}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "doc-1", output.Results[0].DocumentID)
		assert.Equal(t, "Office filing cabinet", output.Results[0].Location.Name)

		assert.Equal(t, "alice", mockSearch.lastOpts.OwnerID)
		assert.Equal(t, 3, mockSearch.lastOpts.TopK)
		assert.True(t, mockSearch.lastOpts.IncludeLocation)
		assert.True(t, mockSearch.lastOpts.IncludeText)
	})

	t.Run("default top_k applies", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		ports := &Ports{Search: mockSearch}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Results)
		assert.Equal(t, domain.DefaultTopK, mockSearch.lastOpts.TopK)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockSearch := &mockSearchService{
			err: errors.New("search failed"),
		}

		ports := &Ports{Search: mockSearch}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleGetDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the document", func(t *testing.T) {
		ports := &Ports{Search: &mockSearchService{}, Document: &mockDocumentService{document: testRecord()}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleGetDocument(ctx, nil, GetDocumentInput{DocumentID: "doc-1"})

		require.NoError(t, err)
		assert.Equal(t, "doc-1", output.DocumentID)
		assert.Contains(t, output.Text, "W-2")
		assert.Equal(t, "2025-02-01T12:00:00Z", output.CreatedAt)
		assert.Equal(t, domain.CodeTax, output.Assignment.CategoryCode)
	})

	t.Run("requires an id", func(t *testing.T) {
		ports := &Ports{Search: &mockSearchService{}, Document: &mockDocumentService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleGetDocument(ctx, nil, GetDocumentInput{})

		assert.Error(t, err)
	})

	t.Run("not found is wrapped", func(t *testing.T) {
		ports := &Ports{Search: &mockSearchService{}, Document: &mockDocumentService{err: domain.ErrNotFound}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleGetDocument(ctx, nil, GetDocumentInput{DocumentID: "nope"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("reports completed state", func(t *testing.T) {
		mockIngest := &mockIngestService{state: &domain.IngestState{
			DocumentID: "doc-9",
			Status:     domain.StatusCompleted,
			Steps:      []string{domain.StepOCR, domain.StepEmbedding},
			Assignment: &domain.Assignment{CategoryCode: domain.CodeBank},
		}}
		ports := &Ports{Search: &mockSearchService{}, Ingest: mockIngest, DefaultOwner: "alice", InboxDir: "/scans"}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleIngest(ctx, nil, IngestInput{Source: "/scans/stmt.jpg", UserNotes: "March"})

		require.NoError(t, err)
		assert.Equal(t, "completed", output.Status)
		assert.Equal(t, "doc-9", output.DocumentID)
		assert.Equal(t, domain.CodeBank, output.Assignment.CategoryCode)
		assert.Equal(t, "alice", mockIngest.lastReq.OwnerID)
		assert.Equal(t, "March", mockIngest.lastReq.UserNotes)
	})

	t.Run("pipeline failure is not a tool error", func(t *testing.T) {
		mockIngest := &mockIngestService{state: &domain.IngestState{
			ErrorID: "err-1",
			Status:  domain.StatusOCRFailed,
			Error:   "no text",
		}}
		ports := &Ports{Search: &mockSearchService{}, Ingest: mockIngest, InboxDir: "/scans"}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleIngest(ctx, nil, IngestInput{Source: "blurry.jpg"})

		require.NoError(t, err)
		assert.Equal(t, "ocr_failed", output.Status)
		assert.Equal(t, "err-1", output.ErrorID)
		assert.NotNil(t, output.Steps)
	})

	t.Run("invalid request is a tool error", func(t *testing.T) {
		mockIngest := &mockIngestService{err: domain.ErrInvalidInput}
		ports := &Ports{Search: &mockSearchService{}, Ingest: mockIngest, LocalFiles: true}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("local path outside inbox is rejected", func(t *testing.T) {
		mockIngest := &mockIngestService{state: &domain.IngestState{Status: domain.StatusCompleted}}
		ports := &Ports{Search: &mockSearchService{}, Ingest: mockIngest, InboxDir: "/scans"}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Source: "/home/alice/.ssh/id_ed25519"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, mockIngest.lastReq.Source)
	})

	t.Run("without inbox only URLs are accepted", func(t *testing.T) {
		mockIngest := &mockIngestService{state: &domain.IngestState{Status: domain.StatusCompleted}}
		ports := &Ports{Search: &mockSearchService{}, Ingest: mockIngest}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Source: "/etc/passwd"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Source: "https://photos.example.com/bill.png"})
		require.NoError(t, err)
		assert.Equal(t, "https://photos.example.com/bill.png", mockIngest.lastReq.Source)
	})

	t.Run("stdio accepts any local path", func(t *testing.T) {
		mockIngest := &mockIngestService{state: &domain.IngestState{Status: domain.StatusCompleted}}
		ports := &Ports{Search: &mockSearchService{}, Ingest: mockIngest, LocalFiles: true}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Source: "/home/alice/Desktop/bill.png"})

		require.NoError(t, err)
		assert.Equal(t, "/home/alice/Desktop/bill.png", mockIngest.lastReq.Source)
	})
}
