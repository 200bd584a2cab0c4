// Package api exposes the document catalog over a JSON HTTP API.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
	"github.com/custodia-labs/docshelf/internal/metrics"
)

// Config holds everything the HTTP API needs.
type Config struct {
	Ingest   driving.IngestService
	Search   driving.SearchService
	Document driving.DocumentService
	Catalog  driving.CatalogService

	// MCP is mounted at /mcp when set.
	MCP http.Handler

	// DefaultOwner is used when a request names no owner.
	DefaultOwner string

	// Tokens are the accepted bearer tokens. Empty disables auth.
	Tokens []string

	// InboxDir is the only directory local ingest sources may come from.
	// Empty accepts http(s) URLs only.
	InboxDir string
}

// Server serves the HTTP API.
type Server struct {
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:           cfg,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.cfg.Tokens))
	r.Use(metrics.Middleware())

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/search", func(r chi.Router) {
		r.Get("/", s.handleSearchQuery)
		r.Post("/", s.handleSearchBody)
	})

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.handleListDocuments)
		r.Post("/", s.handleIngest)
		r.Get("/{id}", s.handleGetDocument)
		r.Delete("/{id}", s.handleDeleteDocument)
	})

	r.Route("/failed", func(r chi.Router) {
		r.Get("/", s.handleListFailed)
		r.Get("/{id}", s.handleGetFailed)
		r.Post("/{id}/retry", s.handleRetryFailed)
		r.Delete("/{id}", s.handleDeleteFailed)
	})

	r.Get("/categories", s.handleListCategories)
	r.Get("/locations", s.handleListLocations)
	r.Get("/mappings", s.handleListMappings)

	if s.cfg.MCP != nil {
		r.Handle("/mcp", s.cfg.MCP)
		r.Handle("/mcp/*", s.cfg.MCP)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// owner returns the requested owner or the configured default.
func (s *Server) owner(requested string) string {
	if requested != "" {
		return requested
	}
	return s.cfg.DefaultOwner
}

// unavailable writes a 501 for a capability that was not wired.
func unavailable(w http.ResponseWriter, what string) {
	writeError(w, http.StatusNotImplemented, CodeInternalError, what+" is not configured")
}
