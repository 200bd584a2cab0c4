package cli

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
)

var testTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// mockSearchService returns a fixed hit list and records the last options.
type mockSearchService struct {
	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return []domain.SearchHit{
		{
			DocumentID: "doc-1",
			Score:      0.91,
			Title:      "Prescription refill for amoxicillin",
			Snippet:    "Prescription refill for amoxicillin 500mg",
			FileType:   "image",
			Category:   "Medical",
			Location:   &domain.LocationInfo{ID: 2, Name: "Kitchen cabinet"},
		},
	}, nil
}

type mockSearchServiceError struct{}

func (m *mockSearchServiceError) Search(context.Context, string, domain.SearchOptions) ([]domain.SearchHit, error) {
	return nil, errors.New("search backend down")
}

// mockIngestService completes every request, failing sources named "blurry.jpg".
type mockIngestService struct {
	requests []domain.IngestRequest
	retried  []string
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestState, error) {
	m.requests = append(m.requests, req)
	if req.Source == "" {
		return nil, domain.ErrInvalidInput
	}
	if req.Source == "blurry.jpg" {
		return &domain.IngestState{
			Request: req,
			ErrorID: "err-1",
			Status:  domain.StatusOCRFailed,
			Error:   "no text found",
			Steps:   []string{},
		}, nil
	}
	return &domain.IngestState{
		Request:    req,
		DocumentID: "doc-new",
		Status:     domain.StatusCompleted,
		Steps:      []string{domain.StepOCR, domain.StepCleaning, domain.StepAssignment, domain.StepEmbedding},
		Assignment: &domain.Assignment{
			CategoryCode: domain.CodeMedical,
			CategoryName: "Medical",
			LocationID:   2,
			LocationName: "Kitchen cabinet",
			Tags:         []string{"pharmacy"},
		},
		Embedding: []float32{0.1, 0.2},
	}, nil
}

func (m *mockIngestService) Retry(_ context.Context, errorID string) (*domain.IngestState, error) {
	m.retried = append(m.retried, errorID)
	if errorID != "err-1" {
		return nil, domain.ErrNotFound
	}
	return &domain.IngestState{DocumentID: "doc-retried", Status: domain.StatusCompleted}, nil
}

// mockDocumentService serves one document and one failed document.
type mockDocumentService struct {
	deleted       []string
	deletedFailed []string
}

func testRecord() *domain.DocumentRecord {
	return &domain.DocumentRecord{
		ID:            "doc-1",
		OwnerID:       "alice",
		Source:        "/scans/rx.jpg",
		FileType:      "image",
		Text:          "Prescription refill for amoxicillin 500mg",
		OCRConfidence: 0.9,
		Status:        domain.StatusCompleted,
		Steps:         []string{domain.StepOCR, domain.StepEmbedding},
		HasEmbedding:  true,
		CreatedAt:     testTime,
		Assignment: &domain.Assignment{
			CategoryCode: domain.CodeMedical,
			CategoryName: "Medical",
			LocationID:   2,
			LocationName: "Kitchen cabinet",
			Reason:       "pharmacy label",
		},
	}
}

func (m *mockDocumentService) List(_ context.Context, ownerID string) ([]domain.IndexEntry, error) {
	if ownerID == "nobody" {
		return nil, nil
	}
	return []domain.IndexEntry{domain.NewIndexEntry(testRecord())}, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string, includeEmbedding bool) (*domain.DocumentRecord, []float32, error) {
	if id != "doc-1" {
		return nil, nil, domain.ErrNotFound
	}
	var emb []float32
	if includeEmbedding {
		emb = []float32{0.1, 0.2, 0.3}
	}
	return testRecord(), emb, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	if id != "doc-1" {
		return domain.ErrNotFound
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentService) ListFailed(context.Context) ([]domain.ErrorDocument, error) {
	return []domain.ErrorDocument{testFailed()}, nil
}

func (m *mockDocumentService) GetFailed(_ context.Context, id string) (*domain.ErrorDocument, error) {
	if id != "err-1" {
		return nil, domain.ErrNotFound
	}
	doc := testFailed()
	return &doc, nil
}

func (m *mockDocumentService) DeleteFailed(_ context.Context, id string) error {
	if id != "err-1" {
		return domain.ErrNotFound
	}
	m.deletedFailed = append(m.deletedFailed, id)
	return nil
}

func testFailed() domain.ErrorDocument {
	return domain.ErrorDocument{
		DocumentRecord: domain.DocumentRecord{
			ID:      "err-1",
			OwnerID: "alice",
			Source:  "blurry.jpg",
			Status:  domain.StatusOCRFailed,
		},
		FailedStep:   domain.StepOCR,
		ErrorMessage: "no text found",
		FailedAt:     testTime,
	}
}

// mockCatalogService keeps categories, locations and mappings in memory.
type mockCatalogService struct {
	categories []domain.Category
	locations  []domain.Location
	mappings   []domain.CategoryLocationMapping
}

func newMockCatalog() *mockCatalogService {
	return &mockCatalogService{
		categories: []domain.Category{{ID: 1, Code: "MED", Name: "Medical", Description: "Prescriptions"}},
		locations:  []domain.Location{{ID: 2, Name: "Kitchen cabinet", Description: "Above the sink"}},
		mappings:   []domain.CategoryLocationMapping{{ID: 1, CategoryID: 1, LocationID: 2, Priority: 8, Allowed: true}},
	}
}

func (m *mockCatalogService) ListCategories(context.Context) ([]domain.Category, error) {
	return m.categories, nil
}

func (m *mockCatalogService) EnsureCategory(_ context.Context, code, name, description string) (*domain.Category, error) {
	if !domain.ValidCode(code) {
		return nil, domain.ErrInvalidInput
	}
	for i := range m.categories {
		if m.categories[i].Code == code {
			return &m.categories[i], nil
		}
	}
	cat := domain.Category{ID: int64(len(m.categories) + 1), Code: code, Name: name, Description: description}
	m.categories = append(m.categories, cat)
	return &cat, nil
}

func (m *mockCatalogService) ImportCategories(ctx context.Context, categories []domain.Category) (int, error) {
	for _, c := range categories {
		if _, err := m.EnsureCategory(ctx, c.Code, c.Name, c.Description); err != nil {
			return 0, err
		}
	}
	return len(categories), nil
}

func (m *mockCatalogService) ListLocations(context.Context) ([]domain.Location, error) {
	return m.locations, nil
}

func (m *mockCatalogService) ImportLocations(_ context.Context, locations []domain.Location) (int, error) {
	m.locations = append(m.locations, locations...)
	return len(locations), nil
}

func (m *mockCatalogService) ListMappings(_ context.Context, categoryCode string) ([]domain.CategoryLocationMapping, error) {
	if categoryCode != "" && categoryCode != "MED" {
		return nil, domain.ErrNotFound
	}
	return m.mappings, nil
}

func (m *mockCatalogService) SetMapping(_ context.Context, categoryCode string, locationID int64, priority int, allowed bool) error {
	if categoryCode != "MED" {
		return domain.ErrNotFound
	}
	m.mappings = append(m.mappings, domain.CategoryLocationMapping{
		CategoryID: 1, LocationID: locationID, Priority: priority, Allowed: allowed,
	})
	return nil
}

// mockMaintenanceService reports fixed statistics.
type mockMaintenanceService struct {
	force  bool
	dryRun bool
	report domain.IntegrityReport
}

func (m *mockMaintenanceService) Reindex(_ context.Context, _ string, force bool) (*domain.ReindexStats, error) {
	m.force = force
	return &domain.ReindexStats{Total: 3, Reindexed: 2, Failed: 1}, nil
}

func (m *mockMaintenanceService) Verify(context.Context) (*domain.IntegrityReport, error) {
	return &m.report, nil
}

func (m *mockMaintenanceService) MigrateInlineEmbeddings(_ context.Context, dryRun bool) (*domain.MigrationStats, error) {
	m.dryRun = dryRun
	return &domain.MigrationStats{Total: 4, WithEmbeddings: 2, Migrated: 2, Skipped: 2}, nil
}

// mockSettingsService stores settings in memory.
type mockSettingsService struct {
	settings domain.AppSettings
	sets     map[string]string
}

func newMockSettings() *mockSettingsService {
	s := domain.DefaultAppSettings()
	s.Owner = "alice"
	s.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, Model: "text-embedding-3-small", APIKey: "sk-test-1234567890"}
	return &mockSettingsService{settings: s, sets: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if key == "bogus" {
		return domain.ErrInvalidInput
	}
	m.sets[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetOCRProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.OCR = domain.OCRSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error {
	if !m.settings.LLM.IsConfigured() {
		return errors.New("LLM provider not configured")
	}
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return nil }
func (m *mockSettingsService) ValidateLLMConfig() error        { return nil }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	ingest      *mockIngestService
	search      *mockSearchService
	document    *mockDocumentService
	catalog     *mockCatalogService
	maintenance *mockMaintenanceService
	settings    *mockSettingsService
}

var (
	_ driving.IngestService      = (*mockIngestService)(nil)
	_ driving.SearchService      = (*mockSearchService)(nil)
	_ driving.DocumentService    = (*mockDocumentService)(nil)
	_ driving.CatalogService     = (*mockCatalogService)(nil)
	_ driving.MaintenanceService = (*mockMaintenanceService)(nil)
	_ driving.SettingsService    = (*mockSettingsService)(nil)
)

// installTestServices swaps in fresh mocks and returns them with a restore func.
func installTestServices() (*testServices, func()) {
	old := Services{
		Ingest:      ingestService,
		Search:      searchService,
		Document:    documentService,
		Catalog:     catalogService,
		Maintenance: maintenanceService,
		Settings:    settingsService,
	}
	mocks := &testServices{
		ingest:      &mockIngestService{},
		search:      &mockSearchService{},
		document:    &mockDocumentService{},
		catalog:     newMockCatalog(),
		maintenance: &mockMaintenanceService{},
		settings:    newMockSettings(),
	}
	SetServices(Services{
		Ingest:      mocks.ingest,
		Search:      mocks.search,
		Document:    mocks.document,
		Catalog:     mocks.catalog,
		Maintenance: mocks.maintenance,
		Settings:    mocks.settings,
	})
	return mocks, func() {
		SetServices(old)
		ownerFlag = ""
	}
}

// setupTestServices installs mocks for tests that only need a restore func.
func setupTestServices() func() {
	_, cleanup := installTestServices()
	return cleanup
}
