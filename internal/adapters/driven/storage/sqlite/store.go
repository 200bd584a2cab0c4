package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docshelf/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
)

// metaDimension is the index_meta key holding the fixed embedding dimension.
const metaDimension = "dimension"

// Store is a unified SQLite-based storage that provides access to
// all catalog store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string

	// writeMu serialises document writes so the dimension check and the
	// insert observe the same index state.
	writeMu sync.Mutex
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docshelf/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docshelf", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// WAL for concurrent readers; pragmas in the DSN apply to every pooled connection
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// ErrorStore returns an ErrorStore interface backed by this store.
func (s *Store) ErrorStore() driven.ErrorStore {
	return &errorStore{store: s}
}

// CategoryStore returns a CategoryStore interface backed by this store.
func (s *Store) CategoryStore() driven.CategoryStore {
	return &categoryStore{store: s}
}

// LocationStore returns a LocationStore interface backed by this store.
func (s *Store) LocationStore() driven.LocationStore {
	return &locationStore{store: s}
}

// MappingStore returns a MappingStore interface backed by this store.
func (s *Store) MappingStore() driven.MappingStore {
	return &mappingStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// Save assigns a fresh ID and writes body, embedding and index entry in one transaction.
func (d *documentStore) Save(ctx context.Context, rec *domain.DocumentRecord, embedding []float32) (string, error) {
	d.store.writeMu.Lock()
	defer d.store.writeMu.Unlock()

	tx, err := d.store.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if len(embedding) > 0 {
		if err := checkDimension(ctx, tx, len(embedding)); err != nil {
			return "", err
		}
	}

	doc := *rec
	doc.ID = uuid.New().String()
	doc.HasEmbedding = len(embedding) > 0
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshalling document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, owner_id, body, created_at) VALUES (?, ?, ?, ?)
	`, doc.ID, doc.OwnerID, string(body), doc.CreatedAt); err != nil {
		return "", fmt.Errorf("inserting document: %w", err)
	}

	if doc.HasEmbedding {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO embeddings (document_id, vector, dimension, created_at) VALUES (?, ?, ?, ?)
		`, doc.ID, float32SliceToBytes(embedding), len(embedding), doc.CreatedAt); err != nil {
			return "", fmt.Errorf("inserting embedding: %w", err)
		}
	}

	if err := insertIndexEntry(ctx, tx, domain.NewIndexEntry(&doc)); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing document: %w", err)
	}

	rec.ID = doc.ID
	rec.HasEmbedding = doc.HasEmbedding
	rec.CreatedAt = doc.CreatedAt
	return doc.ID, nil
}

// Get retrieves a document by ID, optionally with its vector.
func (d *documentStore) Get(ctx context.Context, id string, includeEmbedding bool) (*domain.DocumentRecord, []float32, error) {
	var body string
	err := d.store.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("getting document: %w", err)
	}

	var rec domain.DocumentRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling document %s: %w", id, err)
	}

	if !includeEmbedding {
		return &rec, nil, nil
	}

	emb, err := d.GetEmbedding(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	return &rec, emb, nil
}

// GetEmbedding retrieves only the vector for a document.
func (d *documentStore) GetEmbedding(ctx context.Context, id string) ([]float32, error) {
	var blob []byte
	err := d.store.db.QueryRowContext(ctx,
		"SELECT vector FROM embeddings WHERE document_id = ?", id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting embedding: %w", err)
	}
	return bytesToFloat32Slice(blob), nil
}

// SaveEmbedding replaces the vector for an existing document and flags it as embedded.
func (d *documentStore) SaveEmbedding(ctx context.Context, id string, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("save embedding: %w", domain.ErrInvalidInput)
	}

	d.store.writeMu.Lock()
	defer d.store.writeMu.Unlock()

	tx, err := d.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var body string
	err = tx.QueryRowContext(ctx, "SELECT body FROM documents WHERE id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting document: %w", err)
	}

	if err := checkDimension(ctx, tx, len(embedding)); err != nil {
		return err
	}

	var rec domain.DocumentRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return fmt.Errorf("unmarshalling document %s: %w", id, err)
	}
	rec.HasEmbedding = true
	updated, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO embeddings (document_id, vector, dimension, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			created_at = excluded.created_at
	`, id, float32SliceToBytes(embedding), len(embedding), time.Now().UTC()); err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE documents SET body = ? WHERE id = ?", string(updated), id); err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE index_entries SET has_embedding = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("updating index entry: %w", err)
	}

	return tx.Commit()
}

// ListAll returns index entries in insertion order.
func (d *documentStore) ListAll(ctx context.Context, ownerID string) ([]domain.IndexEntry, error) {
	query := `
		SELECT id, owner_id, created_at, has_embedding, text_preview, category_code, location_name, tags
		FROM index_entries`
	var args []any
	if ownerID != "" {
		query += " WHERE owner_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY seq"

	rows, err := d.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing index entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.IndexEntry{}
	for rows.Next() {
		entry, err := scanIndexEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// GetAllWithEmbeddings loads every embedded document in insertion order.
// Entries whose body or vector is missing are skipped by the joins.
func (d *documentStore) GetAllWithEmbeddings(ctx context.Context, ownerID string) ([]domain.EmbeddedDocument, error) {
	query := `
		SELECT d.body, e.vector
		FROM index_entries i
		JOIN documents d ON d.id = i.id
		JOIN embeddings e ON e.document_id = i.id
		WHERE i.has_embedding = 1`
	var args []any
	if ownerID != "" {
		query += " AND i.owner_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY i.seq"

	rows, err := d.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading embedded documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.EmbeddedDocument //nolint:prealloc // size unknown from query
	for rows.Next() {
		var body string
		var blob []byte
		if err := rows.Scan(&body, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedded document: %w", err)
		}
		var rec domain.DocumentRecord
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			continue
		}
		vec := bytesToFloat32Slice(blob)
		if len(vec) == 0 {
			continue
		}
		docs = append(docs, domain.EmbeddedDocument{
			ID:         rec.ID,
			OwnerID:    rec.OwnerID,
			Text:       rec.Text,
			Embedding:  vec,
			Assignment: rec.Assignment,
			CreatedAt:  rec.CreatedAt,
		})
	}
	return docs, rows.Err()
}

// Delete removes the body, embedding and index entry.
func (d *documentStore) Delete(ctx context.Context, id string) (bool, error) {
	d.store.writeMu.Lock()
	defer d.store.writeMu.Unlock()

	tx, err := d.store.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM embeddings WHERE document_id = ?", id); err != nil {
		return false, fmt.Errorf("deleting embedding: %w", err)
	}
	docResult, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting document: %w", err)
	}
	entryResult, err := tx.ExecContext(ctx, "DELETE FROM index_entries WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting index entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing delete: %w", err)
	}

	docRows, _ := docResult.RowsAffected()
	entryRows, _ := entryResult.RowsAffected()
	return docRows > 0 || entryRows > 0, nil
}

// Dimension returns the fixed embedding dimension, 0 when unset.
func (d *documentStore) Dimension(ctx context.Context) (int, error) {
	return readDimension(ctx, d.store.db)
}

// ResetDimension clears the fixed dimension.
func (d *documentStore) ResetDimension(ctx context.Context) error {
	d.store.writeMu.Lock()
	defer d.store.writeMu.Unlock()

	if _, err := d.store.db.ExecContext(ctx, "DELETE FROM index_meta WHERE key = ?", metaDimension); err != nil {
		return fmt.Errorf("resetting dimension: %w", err)
	}
	return nil
}

// Verify cross-checks index entries against bodies and vectors.
func (d *documentStore) Verify(ctx context.Context) (*domain.IntegrityReport, error) {
	report := &domain.IntegrityReport{}
	checks := []struct {
		query string
		dest  *[]string
	}{
		{
			query: `SELECT i.id FROM index_entries i
				LEFT JOIN documents d ON d.id = i.id
				WHERE d.id IS NULL ORDER BY i.seq`,
			dest: &report.OrphanEntries,
		},
		{
			query: `SELECT d.id FROM documents d
				LEFT JOIN index_entries i ON i.id = d.id
				WHERE i.id IS NULL ORDER BY d.created_at`,
			dest: &report.MissingEntries,
		},
		{
			query: `SELECT i.id FROM index_entries i
				LEFT JOIN embeddings e ON e.document_id = i.id
				WHERE i.has_embedding = 1 AND e.document_id IS NULL ORDER BY i.seq`,
			dest: &report.MissingEmbeddings,
		},
	}

	for _, c := range checks {
		ids, err := queryIDs(ctx, d.store.db, c.query)
		if err != nil {
			return nil, fmt.Errorf("verifying index: %w", err)
		}
		*c.dest = ids
	}
	return report, nil
}

// ==================== Error Store ====================

// errorStore implements driven.ErrorStore.
type errorStore struct {
	store *Store
}

var _ driven.ErrorStore = (*errorStore)(nil)

// Save stores a failed document under a fresh ID.
func (e *errorStore) Save(ctx context.Context, doc *domain.ErrorDocument) (string, error) {
	stored := *doc
	stored.ID = uuid.New().String()
	if stored.FailedAt.IsZero() {
		stored.FailedAt = time.Now().UTC()
	}

	body, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("marshalling error document: %w", err)
	}

	if _, err := e.store.db.ExecContext(ctx, `
		INSERT INTO error_documents (id, body, failed_step, error_message, failed_at)
		VALUES (?, ?, ?, ?, ?)
	`, stored.ID, string(body), stored.FailedStep, stored.ErrorMessage, stored.FailedAt); err != nil {
		return "", fmt.Errorf("saving error document: %w", err)
	}

	doc.ID = stored.ID
	return stored.ID, nil
}

// Get retrieves a failed document.
func (e *errorStore) Get(ctx context.Context, id string) (*domain.ErrorDocument, error) {
	var body string
	err := e.store.db.QueryRowContext(ctx, "SELECT body FROM error_documents WHERE id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting error document: %w", err)
	}
	return unmarshalErrorDocument(body)
}

// List returns failed documents, newest first.
func (e *errorStore) List(ctx context.Context) ([]domain.ErrorDocument, error) {
	rows, err := e.store.db.QueryContext(ctx, "SELECT body FROM error_documents ORDER BY failed_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing error documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.ErrorDocument{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning error document: %w", err)
		}
		doc, err := unmarshalErrorDocument(body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// Delete removes a failed document.
func (e *errorStore) Delete(ctx context.Context, id string) error {
	result, err := e.store.db.ExecContext(ctx, "DELETE FROM error_documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting error document: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting error document: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Helpers ====================

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// readDimension returns the stored dimension, 0 when unset.
func readDimension(ctx context.Context, q queryer) (int, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM index_meta WHERE key = ?", metaDimension).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading dimension: %w", err)
	}
	dim, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parsing dimension %q: %w", value, err)
	}
	return dim, nil
}

// checkDimension fixes the dimension on first write and rejects mismatches after.
func checkDimension(ctx context.Context, tx *sql.Tx, n int) error {
	dim, err := readDimension(ctx, tx)
	if err != nil {
		return err
	}
	if dim == 0 {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO index_meta (key, value) VALUES (?, ?)", metaDimension, strconv.Itoa(n)); err != nil {
			return fmt.Errorf("fixing dimension: %w", err)
		}
		return nil
	}
	if dim != n {
		return fmt.Errorf("%w: got %d, index has %d", domain.ErrDimensionMismatch, n, dim)
	}
	return nil
}

func insertIndexEntry(ctx context.Context, tx *sql.Tx, entry domain.IndexEntry) error {
	tags, err := json.Marshal(entry.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_entries
			(id, owner_id, created_at, has_embedding, text_preview, category_code, location_name, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.OwnerID, entry.CreatedAt, entry.HasEmbedding, entry.TextPreview,
		entry.CategoryCode, entry.LocationName, string(tags)); err != nil {
		return fmt.Errorf("inserting index entry: %w", err)
	}
	return nil
}

// scanIndexEntry scans an index entry from *sql.Rows.
func scanIndexEntry(rows *sql.Rows) (*domain.IndexEntry, error) {
	var entry domain.IndexEntry
	var tagsJSON string
	if err := rows.Scan(&entry.ID, &entry.OwnerID, &entry.CreatedAt, &entry.HasEmbedding,
		&entry.TextPreview, &entry.CategoryCode, &entry.LocationName, &tagsJSON); err != nil {
		return nil, fmt.Errorf("scanning index entry: %w", err)
	}
	if tagsJSON != "" && tagsJSON != "null" {
		if err := json.Unmarshal([]byte(tagsJSON), &entry.Tags); err != nil {
			return nil, fmt.Errorf("unmarshalling tags: %w", err)
		}
	}
	return &entry, nil
}

func unmarshalErrorDocument(body string) (*domain.ErrorDocument, error) {
	var doc domain.ErrorDocument
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("unmarshalling error document: %w", err)
	}
	return &doc, nil
}

func queryIDs(ctx context.Context, q queryer, query string) ([]string, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// float32SliceToBytes converts []float32 to a little-endian byte slice.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
