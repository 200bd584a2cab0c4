package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/custodia-labs/docshelf/internal/adapters/driven/images"
	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// handleSearchQuery handles GET /search?q=...
func (s *Server) handleSearchQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := SearchRequest{
		Query:       q.Get("q"),
		OwnerID:     q.Get("owner_id"),
		AllOwners:   q.Get("all_owners") == "true",
		IncludeText: q.Get("full") == "true",
	}

	if v := q.Get("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "top_k must be a non-negative integer")
			return
		}
		req.TopK = n
	}
	if v := q.Get("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "min_score must be a number")
			return
		}
		req.MinScore = f
	}

	s.search(w, r, req)
}

// handleSearchBody handles POST /search.
func (s *Server) handleSearchBody(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.TopK < 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "top_k must be a non-negative integer")
		return
	}
	s.search(w, r, req)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, req SearchRequest) {
	if s.cfg.Search == nil {
		unavailable(w, "search")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query is required")
		return
	}

	opts := domain.SearchOptions{
		TopK:            req.TopK,
		MinScore:        req.MinScore,
		IncludeLocation: true,
		IncludeText:     req.IncludeText,
	}
	if !req.AllOwners {
		opts.OwnerID = s.owner(req.OwnerID)
	}

	hits, err := s.cfg.Search.Search(r.Context(), req.Query, opts.WithDefaults())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if hits == nil {
		hits = []domain.SearchHit{}
	}

	writeJSON(w, http.StatusOK, SearchResponse{Query: req.Query, Results: hits, Count: len(hits)})
}

// handleIngest handles POST /documents.
// A pipeline failure is a 422 carrying the error ID for a later retry.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ingest == nil {
		unavailable(w, "ingestion")
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "source is required")
		return
	}
	source, err := images.Confine(req.Source, s.cfg.InboxDir)
	if err != nil {
		logger.FromContext(r.Context()).Warn("rejected ingest source", zap.String("source", req.Source))
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "source must be an http(s) URL or a file inside the inbox")
		return
	}

	state, err := s.cfg.Ingest.Ingest(r.Context(), domain.IngestRequest{
		Source:      source,
		OwnerID:     s.owner(req.OwnerID),
		UserNotes:   req.UserNotes,
		FileType:    req.FileType,
		SkipPersist: req.DryRun,
		SkipRemote:  req.SkipRemote,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.writeIngestState(w, r, state, http.StatusCreated)
}

func (s *Server) writeIngestState(w http.ResponseWriter, r *http.Request, state *domain.IngestState, okStatus int) {
	resp := ingestResponse(state)
	switch {
	case state.Status.IsFailure():
		logger.FromContext(r.Context()).Warn("ingestion failed",
			zap.String("source", state.Request.Source),
			zap.String("failed_step", resp.FailedStep),
			zap.String("error_id", state.ErrorID),
		)
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case state.DocumentID == "":
		writeJSON(w, http.StatusOK, resp)
	default:
		writeJSON(w, okStatus, resp)
	}
}

// handleListDocuments handles GET /documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Document == nil {
		unavailable(w, "documents")
		return
	}

	owner := s.owner(r.URL.Query().Get("owner_id"))
	if r.URL.Query().Get("all_owners") == "true" {
		owner = ""
	}

	entries, err := s.cfg.Document.List(r.Context(), owner)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]EntryView, len(entries))
	for i := range entries {
		items[i] = entryView(entries[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// handleGetDocument handles GET /documents/{id}.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Document == nil {
		unavailable(w, "documents")
		return
	}

	withEmbedding := r.URL.Query().Get("embedding") == "true"
	rec, embedding, err := s.cfg.Document.Get(r.Context(), chi.URLParam(r, "id"), withEmbedding)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentView(rec, embedding))
}

// handleDeleteDocument handles DELETE /documents/{id}.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Document == nil {
		unavailable(w, "documents")
		return
	}
	if err := s.cfg.Document.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListFailed handles GET /failed.
func (s *Server) handleListFailed(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Document == nil {
		unavailable(w, "documents")
		return
	}

	docs, err := s.cfg.Document.ListFailed(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]FailedView, len(docs))
	for i := range docs {
		items[i] = failedView(&docs[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// handleGetFailed handles GET /failed/{id}.
func (s *Server) handleGetFailed(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Document == nil {
		unavailable(w, "documents")
		return
	}

	doc, err := s.cfg.Document.GetFailed(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, failedView(doc))
}

// handleRetryFailed handles POST /failed/{id}/retry.
func (s *Server) handleRetryFailed(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ingest == nil {
		unavailable(w, "ingestion")
		return
	}

	state, err := s.cfg.Ingest.Retry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.writeIngestState(w, r, state, http.StatusOK)
}

// handleDeleteFailed handles DELETE /failed/{id}.
func (s *Server) handleDeleteFailed(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Document == nil {
		unavailable(w, "documents")
		return
	}
	if err := s.cfg.Document.DeleteFailed(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListCategories handles GET /categories.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Catalog == nil {
		writeJSON(w, http.StatusOK, []CategoryView{})
		return
	}

	categories, err := s.cfg.Catalog.ListCategories(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]CategoryView, len(categories))
	for i, c := range categories {
		items[i] = CategoryView{ID: c.ID, Code: c.Code, Name: c.Name, Description: c.Description}
	}
	writeJSON(w, http.StatusOK, items)
}

// handleListLocations handles GET /locations.
func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Catalog == nil {
		writeJSON(w, http.StatusOK, []*domain.LocationInfo{})
		return
	}

	locations, err := s.cfg.Catalog.ListLocations(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]*domain.LocationInfo, len(locations))
	for i := range locations {
		items[i] = locations[i].Info()
	}
	writeJSON(w, http.StatusOK, items)
}

// handleListMappings handles GET /mappings?category=CODE.
func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Catalog == nil {
		writeJSON(w, http.StatusOK, []MappingView{})
		return
	}

	mappings, err := s.cfg.Catalog.ListMappings(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]MappingView, len(mappings))
	for i, m := range mappings {
		items[i] = MappingView{
			CategoryID: m.CategoryID,
			LocationID: m.LocationID,
			Priority:   m.Priority,
			Allowed:    m.Allowed,
		}
	}
	writeJSON(w, http.StatusOK, items)
}
