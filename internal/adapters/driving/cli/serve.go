package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/api"
	"github.com/custodia-labs/docshelf/internal/logger"
	"github.com/custodia-labs/docshelf/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over HTTP",
	Long: `Start the JSON HTTP API.

Routes:
  GET    /search?q=...          rank documents against a query
  POST   /documents             ingest a scanned document
  GET    /documents             list catalogued documents
  GET    /documents/{id}        show one document
  DELETE /documents/{id}        delete a document
  GET    /failed                list failed ingestions
  POST   /failed/{id}/retry     retry a failed ingestion
  GET    /categories            list categories
  GET    /locations             list storage locations
  GET    /metrics               Prometheus metrics
  POST   /mcp                   MCP over streamable HTTP

Bearer tokens are read from --token or DOCSHELF_API_TOKENS (comma separated).
With no tokens configured the API is unauthenticated.

The server listens on loopback by default. Remote ingestion accepts http(s)
URLs, and local files only from the directory named by --inbox.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr     string
	serveTokens   []string
	serveEnv      string
	serveLogLevel string
	serveNoMCP    bool
	serveInbox    string
)

const shutdownTimeout = 10 * time.Second

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().StringSliceVar(&serveTokens, "token", nil, "accepted bearer token (repeatable)")
	serveCmd.Flags().StringVar(&serveEnv, "env", "prod", "log format: prod (JSON) or dev (console)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "log level")
	serveCmd.Flags().BoolVar(&serveNoMCP, "no-mcp", false, "do not mount the MCP endpoint")
	serveCmd.Flags().StringVar(&serveInbox, "inbox", "", "directory local ingest sources must come from (default: URLs only)")
	rootCmd.AddCommand(serveCmd)
}

// apiTokens merges flag tokens with DOCSHELF_API_TOKENS.
func apiTokens() []string {
	tokens := append([]string{}, serveTokens...)
	for _, t := range strings.Split(os.Getenv("DOCSHELF_API_TOKENS"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func runServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	log, err := logger.New(serveEnv, serveLogLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	metrics.Register()

	cfg := api.Config{
		Ingest:       ingestService,
		Search:       searchService,
		Document:     documentService,
		Catalog:      catalogService,
		DefaultOwner: currentOwner(),
		Tokens:       apiTokens(),
		InboxDir:     serveInbox,
	}
	if !serveNoMCP {
		mcpServer, err := newMCPServer(false, false, serveInbox)
		if err != nil {
			return err
		}
		cfg.MCP = mcpServer.Handler()
	}
	if len(cfg.Tokens) == 0 {
		log.Warn("API authentication disabled, no tokens configured")
	}

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           api.NewServer(cfg, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", serveAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
		return err
	}

	log.Info("Server stopped gracefully")
	return nil
}
