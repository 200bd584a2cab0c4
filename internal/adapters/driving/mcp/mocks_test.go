package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
)

var (
	_ driving.SearchService   = (*mockSearchService)(nil)
	_ driving.IngestService   = (*mockIngestService)(nil)
	_ driving.DocumentService = (*mockDocumentService)(nil)
	_ driving.CatalogService  = (*mockCatalogService)(nil)
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchHit
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchHit, error) {
	m.lastOpts = opts
	return m.results, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	state   *domain.IngestState
	err     error
	lastReq domain.IngestRequest
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestState, error) {
	m.lastReq = req
	return m.state, m.err
}

func (m *mockIngestService) Retry(_ context.Context, _ string) (*domain.IngestState, error) {
	return m.state, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	entries   []domain.IndexEntry
	document  *domain.DocumentRecord
	err       error
	lastOwner string
}

func (m *mockDocumentService) List(_ context.Context, ownerID string) ([]domain.IndexEntry, error) {
	m.lastOwner = ownerID
	return m.entries, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string, _ bool) (*domain.DocumentRecord, []float32, error) {
	return m.document, nil, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) ListFailed(_ context.Context) ([]domain.ErrorDocument, error) {
	return nil, m.err
}

func (m *mockDocumentService) GetFailed(_ context.Context, _ string) (*domain.ErrorDocument, error) {
	return nil, m.err
}

func (m *mockDocumentService) DeleteFailed(_ context.Context, _ string) error {
	return m.err
}

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	categories []domain.Category
	locations  []domain.Location
	err        error
}

func (m *mockCatalogService) ListCategories(_ context.Context) ([]domain.Category, error) {
	return m.categories, m.err
}

func (m *mockCatalogService) EnsureCategory(_ context.Context, code, name, desc string) (*domain.Category, error) {
	return &domain.Category{Code: code, Name: name, Description: desc}, m.err
}

func (m *mockCatalogService) ImportCategories(_ context.Context, c []domain.Category) (int, error) {
	return len(c), m.err
}

func (m *mockCatalogService) ListLocations(_ context.Context) ([]domain.Location, error) {
	return m.locations, m.err
}

func (m *mockCatalogService) ImportLocations(_ context.Context, l []domain.Location) (int, error) {
	return len(l), m.err
}

func (m *mockCatalogService) ListMappings(_ context.Context, _ string) ([]domain.CategoryLocationMapping, error) {
	return nil, m.err
}

func (m *mockCatalogService) SetMapping(_ context.Context, _ string, _ int64, _ int, _ bool) error {
	return m.err
}

func testRecord() *domain.DocumentRecord {
	return &domain.DocumentRecord{
		ID:        "doc-1",
		OwnerID:   "alice",
		Source:    "/scans/w2.jpg",
		FileType:  "image",
		Text:      "Form W-2 Wage and Tax Statement 2024",
		CreatedAt: time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC),
		Assignment: &domain.Assignment{
			CategoryCode: domain.CodeTax,
			CategoryName: "Tax Documents",
			LocationID:   1,
			LocationName: "Office filing cabinet",
		},
	}
}
