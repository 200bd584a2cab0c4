// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DocumentStore: document bodies, embeddings and the ordered index
//   - ErrorStore: documents whose ingestion failed
//   - CategoryStore, LocationStore, MappingStore: the assignment catalog
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.docshelf/data/metadata.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. Document writes are serialised
// in-process; everything else relies on SQLite in WAL mode.
package sqlite
