// Package mcp provides an MCP (Model Context Protocol) server adapter for docshelf.
// It lets AI assistants search the household catalog, read documents and
// file new scans.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
