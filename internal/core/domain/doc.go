// Package domain defines the core business entities for docshelf.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentRecord: A catalogued physical document
//   - EmbeddingRecord: The stored vector for a document
//   - Category and Location: The classification and storage catalogs
//   - Proposal: A classifier's category choice
//   - IngestState and SearchState: The state threaded through each pipeline
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
