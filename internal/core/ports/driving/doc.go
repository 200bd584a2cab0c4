// Package driving defines interfaces that external actors (CLI, HTTP, MCP,
// the inbox watcher and the TUI) use to interact with core services. These
// are the "driving" ports in hexagonal architecture terminology.
//
// Implementations of these interfaces live in internal/core/services.
package driving
