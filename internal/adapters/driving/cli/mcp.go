package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server exposes search, get_document and ingest_document tools plus the
category and location catalogs as resources.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Over HTTP the ingest tool accepts http(s) URLs, and local files only from
the directory named by --inbox. Stdio clients may pass any local path.

Examples:
  # Stdio mode (default, for Claude Desktop)
  docshelf mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  docshelf mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "docshelf": {
        "command": "/path/to/docshelf",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

var (
	mcpReadOnly bool
	mcpInbox    string
)

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().BoolVar(&mcpReadOnly, "read-only", false, "do not expose the ingest tool")
	mcpServeCmd.Flags().StringVar(&mcpInbox, "inbox", "", "directory local ingest sources must come from over HTTP")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

// newMCPServer builds the MCP server from the installed services.
// localFiles lets the ingest tool read any local path; otherwise local
// sources are confined to inbox.
func newMCPServer(readOnly, localFiles bool, inbox string) (*mcp.Server, error) {
	if searchService == nil {
		return nil, errors.New("search service not configured")
	}

	ports := &mcp.Ports{
		Search:       searchService,
		Document:     documentService,
		Catalog:      catalogService,
		DefaultOwner: currentOwner(),
		InboxDir:     inbox,
		LocalFiles:   localFiles,
	}
	if !readOnly {
		ports.Ingest = ingestService
	}

	return mcp.NewServer(ports)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := newMCPServer(mcpReadOnly, port == 0, mcpInbox)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
