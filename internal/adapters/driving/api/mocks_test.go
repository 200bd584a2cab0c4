package api

import (
	"context"
	"path/filepath"
	"errors"
	"time"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
)

var testTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

var (
	_ driving.SearchService   = (*mockSearch)(nil)
	_ driving.IngestService   = (*mockIngest)(nil)
	_ driving.DocumentService = (*mockDocuments)(nil)
	_ driving.CatalogService  = (*mockCatalog)(nil)
)

type mockSearch struct {
	lastQuery string
	lastOpts  domain.SearchOptions
	hits      []domain.SearchHit
	err       error
}

func (m *mockSearch) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.hits, m.err
}

type mockIngest struct {
	lastReq domain.IngestRequest
	retried string
}

func (m *mockIngest) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestState, error) {
	m.lastReq = req
	switch {
	case filepath.Base(req.Source) == "panic.jpg":
		panic("extractor exploded")
	case filepath.Base(req.Source) == "blurry.jpg":
		return &domain.IngestState{
			Request: req,
			ErrorID: "err-1",
			Status:  domain.StatusOCRFailed,
			Error:   "no text found",
		}, nil
	case req.SkipPersist:
		return &domain.IngestState{
			Request: req,
			Status:  domain.StatusEmbeddingCompleted,
			Steps:   []string{domain.StepOCR, domain.StepCleaning},
		}, nil
	}
	return &domain.IngestState{
		Request:    req,
		DocumentID: "doc-new",
		Status:     domain.StatusCompleted,
		Steps:      []string{domain.StepOCR, domain.StepCleaning, domain.StepAssignment, domain.StepEmbedding},
		Assignment: &domain.Assignment{CategoryCode: domain.CodeTax, CategoryName: "Tax Documents"},
		Embedding:  []float32{0.1, 0.2, 0.3},
	}, nil
}

func (m *mockIngest) Retry(_ context.Context, errorID string) (*domain.IngestState, error) {
	m.retried = errorID
	if errorID != "err-1" {
		return nil, domain.ErrNotFound
	}
	return &domain.IngestState{DocumentID: "doc-retried", Status: domain.StatusCompleted}, nil
}

type mockDocuments struct {
	lastOwner string
	deleted   []string
}

func testRecord() *domain.DocumentRecord {
	return &domain.DocumentRecord{
		ID:           "doc-1",
		OwnerID:      "alice",
		Source:       "/scans/w2.jpg",
		FileType:     "image",
		Text:         "Form W-2 Wage and Tax Statement 2024",
		Status:       domain.StatusCompleted,
		HasEmbedding: true,
		Assignment:   &domain.Assignment{CategoryCode: domain.CodeTax, LocationID: 3, LocationName: "Filing cabinet"},
		CreatedAt:    testTime,
	}
}

func (m *mockDocuments) List(_ context.Context, ownerID string) ([]domain.IndexEntry, error) {
	m.lastOwner = ownerID
	return []domain.IndexEntry{domain.NewIndexEntry(testRecord())}, nil
}

func (m *mockDocuments) Get(_ context.Context, id string, includeEmbedding bool) (*domain.DocumentRecord, []float32, error) {
	if id != "doc-1" {
		return nil, nil, domain.ErrNotFound
	}
	if includeEmbedding {
		return testRecord(), []float32{0.5, 0.5}, nil
	}
	return testRecord(), nil, nil
}

func (m *mockDocuments) Delete(_ context.Context, id string) error {
	if id != "doc-1" {
		return domain.ErrNotFound
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocuments) ListFailed(context.Context) ([]domain.ErrorDocument, error) {
	return []domain.ErrorDocument{{
		DocumentRecord: domain.DocumentRecord{ID: "err-1", Source: "blurry.jpg", Status: domain.StatusOCRFailed},
		FailedStep:     domain.StepOCR,
		ErrorMessage:   "no text found",
		FailedAt:       testTime,
	}}, nil
}

func (m *mockDocuments) GetFailed(_ context.Context, id string) (*domain.ErrorDocument, error) {
	if id != "err-1" {
		return nil, domain.ErrNotFound
	}
	return &domain.ErrorDocument{FailedStep: domain.StepOCR, ErrorMessage: "no text found"}, nil
}

func (m *mockDocuments) DeleteFailed(_ context.Context, id string) error {
	if id != "err-1" {
		return domain.ErrNotFound
	}
	return nil
}

type mockCatalog struct {
	err error
}

func (m *mockCatalog) ListCategories(context.Context) ([]domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Category{{ID: 1, Code: domain.CodeTax, Name: "Tax Documents"}}, nil
}

func (m *mockCatalog) EnsureCategory(context.Context, string, string, string) (*domain.Category, error) {
	return nil, errors.New("not supported")
}

func (m *mockCatalog) ImportCategories(context.Context, []domain.Category) (int, error) {
	return 0, nil
}

func (m *mockCatalog) ListLocations(context.Context) ([]domain.Location, error) {
	return []domain.Location{{ID: 3, Name: "Filing cabinet", PhotoURL: "https://photos.example/cabinet.jpg"}}, nil
}

func (m *mockCatalog) ImportLocations(context.Context, []domain.Location) (int, error) {
	return 0, nil
}

func (m *mockCatalog) ListMappings(_ context.Context, code string) ([]domain.CategoryLocationMapping, error) {
	if code == "NOPE" {
		return nil, domain.ErrNotFound
	}
	return []domain.CategoryLocationMapping{{CategoryID: 1, LocationID: 3, Priority: 8, Allowed: true}}, nil
}

func (m *mockCatalog) SetMapping(context.Context, string, int64, int, bool) error {
	return nil
}
