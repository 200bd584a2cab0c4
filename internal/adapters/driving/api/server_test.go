package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

type testEnv struct {
	search  *mockSearch
	ingest  *mockIngest
	docs    *mockDocuments
	catalog *mockCatalog
	handler http.Handler
}

func newTestEnv(tokens ...string) *testEnv {
	env := &testEnv{
		search: &mockSearch{hits: []domain.SearchHit{{
			DocumentID: "doc-1",
			Score:      0.87,
			Title:      "Form W-2 Wage and Tax Statement 2024",
			Category:   "Tax Documents",
			Location:   &domain.LocationInfo{ID: 3, Name: "Filing cabinet"},
		}}},
		ingest:  &mockIngest{},
		docs:    &mockDocuments{},
		catalog: &mockCatalog{},
	}
	srv := NewServer(Config{
		Ingest:       env.ingest,
		Search:       env.search,
		Document:     env.docs,
		Catalog:      env.catalog,
		DefaultOwner: "alice",
		Tokens:       tokens,
		InboxDir:     "/scans",
	}, nil)
	env.handler = srv.Router()
	return env
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

// ==================== Health ====================

func TestHealth(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodGet, "/nope", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, CodeNotFound, decode[ErrorResponse](t, rr).Code)
}

// ==================== Search ====================

func TestSearch_Query(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodGet, "/search?q=w2+form&top_k=3&min_score=0.2&full=true", "")

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[SearchResponse](t, rr)
	assert.Equal(t, "w2 form", resp.Query)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "Filing cabinet", resp.Results[0].Location.Name)

	assert.Equal(t, "w2 form", env.search.lastQuery)
	assert.Equal(t, 3, env.search.lastOpts.TopK)
	assert.InDelta(t, 0.2, env.search.lastOpts.MinScore, 1e-9)
	assert.Equal(t, "alice", env.search.lastOpts.OwnerID)
	assert.True(t, env.search.lastOpts.IncludeText)
	assert.True(t, env.search.lastOpts.IncludeLocation)
}

func TestSearch_DefaultsTopK(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodGet, "/search?q=insurance", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.DefaultTopK, env.search.lastOpts.TopK)
}

func TestSearch_AllOwners(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodPost, "/search", `{"query":"lease","all_owners":true}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, env.search.lastOpts.OwnerID)
}

func TestSearch_Body(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodPost, "/search", `{"query":"visa","owner_id":"bob","top_k":2}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "bob", env.search.lastOpts.OwnerID)
	assert.Equal(t, 2, env.search.lastOpts.TopK)
}

func TestSearch_EmptyResultIsArray(t *testing.T) {
	env := newTestEnv()
	env.search.hits = nil

	rr := env.do(http.MethodGet, "/search?q=nothing", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"results":[]`)
}

func TestSearch_Validation(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{name: "missing query", method: http.MethodGet, target: "/search"},
		{name: "blank query", method: http.MethodPost, target: "/search", body: `{"query":"  "}`},
		{name: "bad top_k", method: http.MethodGet, target: "/search?q=x&top_k=abc"},
		{name: "negative top_k", method: http.MethodGet, target: "/search?q=x&top_k=-1"},
		{name: "bad min_score", method: http.MethodGet, target: "/search?q=x&min_score=high"},
		{name: "malformed body", method: http.MethodPost, target: "/search", body: `{"query":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			rr := env.do(tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestSearch_DomainErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, CodeEmbeddingUnavailable},
		{domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited},
		{domain.ErrDimensionMismatch, http.StatusConflict, CodeDimensionMismatch},
		{errors.New("disk on fire"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			env := newTestEnv()
			env.search.err = fmt.Errorf("searching: %w", tt.err)

			rr := env.do(http.MethodGet, "/search?q=x", "")

			assert.Equal(t, tt.status, rr.Code)
			resp := decode[ErrorResponse](t, rr)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotContains(t, resp.Message, "searching")
		})
	}
}

// ==================== Ingest ====================

func TestIngest_Created(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodPost, "/documents", `{"source":"/scans/w2.jpg","user_notes":"from employer"}`)

	require.Equal(t, http.StatusCreated, rr.Code)
	resp := decode[IngestResponse](t, rr)
	assert.Equal(t, "doc-new", resp.DocumentID)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 3, resp.Dimension)
	assert.Equal(t, domain.CodeTax, resp.Assignment.CategoryCode)
	assert.Equal(t, "alice", env.ingest.lastReq.OwnerID)
	assert.Equal(t, "from employer", env.ingest.lastReq.UserNotes)
}

func TestIngest_DryRun(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodPost, "/documents", `{"source":"/scans/w2.jpg","dry_run":true,"skip_remote":true}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.ingest.lastReq.SkipPersist)
	assert.True(t, env.ingest.lastReq.SkipRemote)
	assert.Empty(t, decode[IngestResponse](t, rr).DocumentID)
}

func TestIngest_PipelineFailure(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodPost, "/documents", `{"source":"blurry.jpg"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decode[IngestResponse](t, rr)
	assert.Equal(t, "err-1", resp.ErrorID)
	assert.Equal(t, domain.StepOCR, resp.FailedStep)
	assert.Equal(t, "no text found", resp.Error)
	assert.NotNil(t, resp.Steps)
	assert.Equal(t, "/scans/blurry.jpg", env.ingest.lastReq.Source)
}

func TestIngest_SourceOutsideInboxRejected(t *testing.T) {
	for _, source := range []string{"/etc/passwd", "../home/alice/.aws/credentials", "/scans/../etc/shadow"} {
		t.Run(source, func(t *testing.T) {
			env := newTestEnv()

			rr := env.do(http.MethodPost, "/documents", `{"source":"`+source+`"}`)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, CodeValidationFailed, decode[ErrorResponse](t, rr).Code)
			assert.Empty(t, env.ingest.lastReq.Source, "pipeline must not run")
		})
	}
}

func TestIngest_WithoutInboxOnlyURLs(t *testing.T) {
	ingest := &mockIngest{}
	secret := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("AWS_SECRET=hunter2"), 0o600))
	handler := NewServer(Config{Search: &mockSearch{}, Ingest: ingest}, nil).Router()

	post := func(source string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{"source":"`+source+`"}`))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	rr := post(secret)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.NotContains(t, rr.Body.String(), "hunter2")
	assert.Empty(t, ingest.lastReq.Source)

	rr = post("https://photos.example.com/w2.jpg")
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "https://photos.example.com/w2.jpg", ingest.lastReq.Source)
}

func TestIngest_MissingSource(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodPost, "/documents", `{"user_notes":"no file"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIngest_PanicRecovered(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodPost, "/documents", `{"source":"panic.jpg"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, CodeInternalError, decode[ErrorResponse](t, rr).Code)
}

func TestIngest_NotConfigured(t *testing.T) {
	srv := NewServer(Config{Search: &mockSearch{}}, nil)
	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{"source":"a.jpg"}`))
	rr := httptest.NewRecorder()

	srv.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}

// ==================== Documents ====================

func TestDocuments_List(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodGet, "/documents?owner_id=bob", "")

	require.Equal(t, http.StatusOK, rr.Code)
	items := decode[[]EntryView](t, rr)
	require.Len(t, items, 1)
	assert.Equal(t, "doc-1", items[0].ID)
	assert.Equal(t, domain.CodeTax, items[0].CategoryCode)
	assert.True(t, items[0].Searchable)
	assert.Equal(t, "bob", env.docs.lastOwner)
}

func TestDocuments_ListAllOwners(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodGet, "/documents?all_owners=true", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, env.docs.lastOwner)
}

func TestDocuments_Get(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodGet, "/documents/doc-1", "")

	require.Equal(t, http.StatusOK, rr.Code)
	doc := decode[DocumentView](t, rr)
	assert.Equal(t, "Form W-2 Wage and Tax Statement 2024", doc.Text)
	assert.Equal(t, "Filing cabinet", doc.Assignment.LocationName)
	assert.Nil(t, doc.Embedding)
}

func TestDocuments_GetWithEmbedding(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodGet, "/documents/doc-1?embedding=true", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []float32{0.5, 0.5}, decode[DocumentView](t, rr).Embedding)
}

func TestDocuments_GetMissing(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodGet, "/documents/doc-404", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not found", decode[ErrorResponse](t, rr).Message)
}

func TestDocuments_Delete(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodDelete, "/documents/doc-1", "")

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"doc-1"}, env.docs.deleted)

	rr = env.do(http.MethodDelete, "/documents/doc-2", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// ==================== Failed ====================

func TestFailed_List(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodGet, "/failed", "")

	require.Equal(t, http.StatusOK, rr.Code)
	items := decode[[]FailedView](t, rr)
	require.Len(t, items, 1)
	assert.Equal(t, "err-1", items[0].ID)
	assert.Equal(t, domain.StepOCR, items[0].FailedStep)
	assert.Equal(t, "ocr_failed", items[0].Status)
}

func TestFailed_Get(t *testing.T) {
	env := newTestEnv()

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/failed/err-1", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/failed/err-9", "").Code)
}

func TestFailed_Retry(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodPost, "/failed/err-1/retry", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "doc-retried", decode[IngestResponse](t, rr).DocumentID)
	assert.Equal(t, "err-1", env.ingest.retried)
}

func TestFailed_RetryUnknown(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodPost, "/failed/err-9/retry", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFailed_Delete(t *testing.T) {
	env := newTestEnv()

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/failed/err-1", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/failed/err-9", "").Code)
}

// ==================== Catalog ====================

func TestCatalog_Categories(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodGet, "/categories", "")

	require.Equal(t, http.StatusOK, rr.Code)
	items := decode[[]CategoryView](t, rr)
	require.Len(t, items, 1)
	assert.Equal(t, domain.CodeTax, items[0].Code)
}

func TestCatalog_CategoriesError(t *testing.T) {
	env := newTestEnv()
	env.catalog.err = errors.New("database locked")

	rr := env.do(http.MethodGet, "/categories", "")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal error", decode[ErrorResponse](t, rr).Message)
}

func TestCatalog_Locations(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodGet, "/locations", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"photo_url":"https://photos.example/cabinet.jpg"`)
}

func TestCatalog_Mappings(t *testing.T) {
	env := newTestEnv()

	rr := env.do(http.MethodGet, "/mappings?category=TAX", "")
	require.Equal(t, http.StatusOK, rr.Code)
	items := decode[[]MappingView](t, rr)
	require.Len(t, items, 1)
	assert.Equal(t, 8, items[0].Priority)

	rr = env.do(http.MethodGet, "/mappings?category=NOPE", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCatalog_NotConfigured(t *testing.T) {
	srv := NewServer(Config{}, nil)
	rr := httptest.NewRecorder()

	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/categories", http.NoBody))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

// ==================== MCP mount ====================

func TestMCPMounted(t *testing.T) {
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	srv := NewServer(Config{MCP: mcpHandler}, nil)
	rr := httptest.NewRecorder()

	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/mcp", http.NoBody))

	assert.Equal(t, http.StatusAccepted, rr.Code)
}
