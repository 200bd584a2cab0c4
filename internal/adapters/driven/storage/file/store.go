// Package file stores documents as JSON files under a data directory.
//
// Layout:
//
//	documents/{id}.json   document body
//	embeddings/{id}.json  vector and dimension
//	errors/{id}.json      failed ingestions
//	index.json            ordered index entries and the fixed dimension
//
// Every file is written to a temp file and renamed into place. All writers
// share one mutex; readers take the read lock.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/logger"
)

const (
	documentsDir  = "documents"
	embeddingsDir = "embeddings"
	errorsDir     = "errors"
	indexFile     = "index.json"
)

// Ensure Store implements the interfaces.
var (
	_ driven.DocumentStore     = (*Store)(nil)
	_ driven.EmbeddingMigrator = (*Store)(nil)
)

// index is the on-disk shape of index.json.
type index struct {
	Dimension int                 `json:"dimension"`
	Entries   []domain.IndexEntry `json:"entries"`
}

// storedDocument is a document body. Embedding is only present in bodies
// written before vectors moved to embeddings/.
type storedDocument struct {
	domain.DocumentRecord
	Embedding []float32 `json:"embedding,omitempty"`
}

type storedEmbedding struct {
	DocumentID string    `json:"document_id"`
	Embedding  []float32 `json:"embedding"`
	Dimension  int       `json:"embedding_dimension"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is a JSON file implementation of driven.DocumentStore.
type Store struct {
	mu   sync.RWMutex
	root string
}

// NewStore creates a file store rooted at dataDir.
// If dataDir is empty, defaults to ~/.docshelf/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docshelf", "data")
	}

	for _, dir := range []string{documentsDir, embeddingsDir, errorsDir} {
		if err := os.MkdirAll(filepath.Join(dataDir, dir), 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	return &Store{root: dataDir}, nil
}

// Path returns the data directory.
func (s *Store) Path() string {
	return s.root
}

// ErrorStore returns an ErrorStore backed by errors/ under the same root.
func (s *Store) ErrorStore() driven.ErrorStore {
	return &errorStore{store: s}
}

// Save writes body, embedding and index entry. If the index write fails the
// body and embedding are removed again.
func (s *Store) Save(_ context.Context, rec *domain.DocumentRecord, embedding []float32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return "", fmt.Errorf("save document: %w", err)
	}
	if len(embedding) > 0 && idx.Dimension != 0 && len(embedding) != idx.Dimension {
		return "", fmt.Errorf("save document: %w: got %d, index has %d",
			domain.ErrDimensionMismatch, len(embedding), idx.Dimension)
	}

	doc := *rec
	doc.ID = uuid.New().String()
	doc.HasEmbedding = len(embedding) > 0
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	docPath := s.documentPath(doc.ID)
	if err := writeJSON(docPath, storedDocument{DocumentRecord: doc}); err != nil {
		return "", fmt.Errorf("save document: %w", err)
	}

	embPath := s.embeddingPath(doc.ID)
	if doc.HasEmbedding {
		if err := writeJSON(embPath, newStoredEmbedding(doc.ID, embedding)); err != nil {
			removeQuietly(docPath)
			return "", fmt.Errorf("save embedding: %w", err)
		}
		if idx.Dimension == 0 {
			idx.Dimension = len(embedding)
		}
	}

	idx.Entries = append(idx.Entries, domain.NewIndexEntry(&doc))
	if err := s.writeIndex(idx); err != nil {
		removeQuietly(docPath)
		removeQuietly(embPath)
		return "", fmt.Errorf("save index: %w", err)
	}

	rec.ID = doc.ID
	rec.HasEmbedding = doc.HasEmbedding
	rec.CreatedAt = doc.CreatedAt
	return doc.ID, nil
}

// Get retrieves a document by ID.
func (s *Store) Get(_ context.Context, id string, includeEmbedding bool) (*domain.DocumentRecord, []float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.readDocument(id)
	if err != nil {
		return nil, nil, err
	}
	if !includeEmbedding {
		return &doc.DocumentRecord, nil, nil
	}

	emb, err := s.readEmbedding(id)
	if errors.Is(err, domain.ErrNotFound) {
		// Bodies from before the split still carry their vector inline.
		return &doc.DocumentRecord, doc.Embedding, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &doc.DocumentRecord, emb, nil
}

// GetEmbedding retrieves only the vector for a document.
func (s *Store) GetEmbedding(_ context.Context, id string) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readEmbedding(id)
}

// SaveEmbedding replaces the vector for an existing document.
func (s *Store) SaveEmbedding(_ context.Context, id string, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("save embedding: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument(id)
	if err != nil {
		return err
	}

	idx, err := s.readIndex()
	if err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}
	if idx.Dimension != 0 && len(embedding) != idx.Dimension {
		return fmt.Errorf("save embedding: %w: got %d, index has %d",
			domain.ErrDimensionMismatch, len(embedding), idx.Dimension)
	}

	if err := writeJSON(s.embeddingPath(id), newStoredEmbedding(id, embedding)); err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}

	if !doc.HasEmbedding || doc.Embedding != nil {
		doc.HasEmbedding = true
		doc.Embedding = nil
		if err := writeJSON(s.documentPath(id), doc); err != nil {
			return fmt.Errorf("save document: %w", err)
		}
	}

	idx.Dimension = len(embedding)
	for i := range idx.Entries {
		if idx.Entries[i].ID == id {
			idx.Entries[i].HasEmbedding = true
		}
	}
	if err := s.writeIndex(idx); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}

// ListAll returns index entries in insertion order.
func (s *Store) ListAll(_ context.Context, ownerID string) ([]domain.IndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.readIndex()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	entries := make([]domain.IndexEntry, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		if ownerID == "" || e.OwnerID == ownerID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// GetAllWithEmbeddings loads every embedded document. Entries whose body or
// vector cannot be read are logged and skipped.
func (s *Store) GetAllWithEmbeddings(_ context.Context, ownerID string) ([]domain.EmbeddedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.readIndex()
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	var docs []domain.EmbeddedDocument
	for _, e := range idx.Entries {
		if !e.HasEmbedding || (ownerID != "" && e.OwnerID != ownerID) {
			continue
		}
		doc, err := s.readDocument(e.ID)
		if err != nil {
			logger.Warn("skipping %s: %v", e.ID, err)
			continue
		}
		emb, err := s.readEmbedding(e.ID)
		if errors.Is(err, domain.ErrNotFound) && len(doc.Embedding) > 0 {
			emb, err = doc.Embedding, nil
		}
		if err != nil || len(emb) == 0 {
			logger.Warn("skipping %s: embedding unavailable", e.ID)
			continue
		}
		docs = append(docs, domain.EmbeddedDocument{
			ID:         doc.ID,
			OwnerID:    doc.OwnerID,
			Text:       doc.Text,
			Embedding:  emb,
			Assignment: doc.Assignment,
			CreatedAt:  doc.CreatedAt,
		})
	}
	return docs, nil
}

// Delete removes body, embedding and index entry in that order. A failure
// part-way leaves an entry that Verify reports.
func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	pos := -1
	for i, e := range idx.Entries {
		if e.ID == id {
			pos = i
			break
		}
	}
	_, statErr := os.Stat(s.documentPath(id))
	if pos < 0 && os.IsNotExist(statErr) {
		return false, nil
	}

	if err := removeIfExists(s.documentPath(id)); err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	if err := removeIfExists(s.embeddingPath(id)); err != nil {
		return false, fmt.Errorf("delete embedding: %w", err)
	}
	if pos >= 0 {
		idx.Entries = append(idx.Entries[:pos], idx.Entries[pos+1:]...)
		if err := s.writeIndex(idx); err != nil {
			return false, fmt.Errorf("delete index entry: %w", err)
		}
	}
	return true, nil
}

// Dimension returns the fixed embedding dimension.
func (s *Store) Dimension(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, err := s.readIndex()
	if err != nil {
		return 0, err
	}
	return idx.Dimension, nil
}

// ResetDimension clears the fixed dimension.
func (s *Store) ResetDimension(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.readIndex()
	if err != nil {
		return fmt.Errorf("reset dimension: %w", err)
	}
	idx.Dimension = 0
	return s.writeIndex(idx)
}

// Verify cross-checks index.json against documents/ and embeddings/.
func (s *Store) Verify(_ context.Context) (*domain.IntegrityReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := &domain.IntegrityReport{}
	idx, err := s.readIndex()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	indexed := make(map[string]bool, len(idx.Entries))
	for _, e := range idx.Entries {
		indexed[e.ID] = true
		if !fileExists(s.documentPath(e.ID)) {
			report.OrphanEntries = append(report.OrphanEntries, e.ID)
			continue
		}
		if e.HasEmbedding && !fileExists(s.embeddingPath(e.ID)) {
			doc, err := s.readDocument(e.ID)
			if err != nil || len(doc.Embedding) == 0 {
				report.MissingEmbeddings = append(report.MissingEmbeddings, e.ID)
			}
		}
	}

	ids, err := s.listIDs(documentsDir)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	for _, id := range ids {
		if !indexed[id] {
			report.MissingEntries = append(report.MissingEntries, id)
		}
	}
	return report, nil
}

// MigrateInlineEmbeddings moves vectors stored inside document bodies into
// embeddings/. Documents whose vector file already exists are skipped.
func (s *Store) MigrateInlineEmbeddings(_ context.Context, dryRun bool) (*domain.MigrationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &domain.MigrationStats{}
	ids, err := s.listIDs(documentsDir)
	if err != nil {
		return nil, fmt.Errorf("migrate embeddings: %w", err)
	}
	stats.Total = len(ids)

	idx, err := s.readIndex()
	if err != nil {
		return nil, fmt.Errorf("migrate embeddings: %w", err)
	}
	indexChanged := false
	for _, id := range ids {
		doc, err := s.readDocument(id)
		if err != nil {
			logger.Warn("migrate %s: %v", id, err)
			stats.Errors++
			continue
		}
		if len(doc.Embedding) == 0 {
			stats.Skipped++
			continue
		}
		stats.WithEmbeddings++

		if fileExists(s.embeddingPath(id)) {
			logger.Info("Embedding already exists for %s, skipping", id)
			stats.Skipped++
			continue
		}
		if dryRun {
			logger.Info("[dry run] would migrate embedding for %s", id)
			stats.Migrated++
			continue
		}

		if err := writeJSON(s.embeddingPath(id), newStoredEmbedding(id, doc.Embedding)); err != nil {
			logger.Warn("migrate %s: %v", id, err)
			stats.Errors++
			continue
		}
		dim := len(doc.Embedding)
		doc.Embedding = nil
		doc.HasEmbedding = true
		if err := writeJSON(s.documentPath(id), doc); err != nil {
			logger.Warn("migrate %s: %v", id, err)
			stats.Errors++
			continue
		}
		if idx.Dimension == 0 {
			idx.Dimension = dim
			indexChanged = true
		}
		for i := range idx.Entries {
			if idx.Entries[i].ID == id && !idx.Entries[i].HasEmbedding {
				idx.Entries[i].HasEmbedding = true
				indexChanged = true
			}
		}
		logger.Debug("migrated embedding for %s", id)
		stats.Migrated++
	}

	if indexChanged {
		if err := s.writeIndex(idx); err != nil {
			return stats, fmt.Errorf("migrate embeddings: %w", err)
		}
	}
	return stats, nil
}

// ==================== Helpers ====================

func (s *Store) documentPath(id string) string {
	return filepath.Join(s.root, documentsDir, id+".json")
}

func (s *Store) embeddingPath(id string) string {
	return filepath.Join(s.root, embeddingsDir, id+".json")
}

// readIndex loads index.json. A missing or unparseable index reads as empty
// and is replaced on the next write. Any other read failure is returned, so
// a transient I/O error can never truncate the index.
func (s *Store) readIndex() (index, error) {
	var idx index
	data, err := os.ReadFile(filepath.Join(s.root, indexFile))
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return idx, fmt.Errorf("reading index: %w", err)
	}
	if err := json.Unmarshal(data, &idx); err != nil {
		logger.Warn("%v: %v; treating as empty", domain.ErrCorruptIndex, err)
		return index{}, nil
	}
	return idx, nil
}

func (s *Store) writeIndex(idx index) error {
	if idx.Entries == nil {
		idx.Entries = []domain.IndexEntry{}
	}
	return writeJSON(filepath.Join(s.root, indexFile), idx)
}

func (s *Store) readDocument(id string) (*storedDocument, error) {
	var doc storedDocument
	if err := readJSON(s.documentPath(id), &doc); err != nil {
		return nil, err
	}
	if doc.ID == "" {
		doc.ID = id
	}
	return &doc, nil
}

func (s *Store) readEmbedding(id string) ([]float32, error) {
	var emb storedEmbedding
	if err := readJSON(s.embeddingPath(id), &emb); err != nil {
		return nil, err
	}
	return emb.Embedding, nil
}

// listIDs returns the IDs of every *.json file in dir, sorted.
func (s *Store) listIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func newStoredEmbedding(id string, vec []float32) storedEmbedding {
	return storedEmbedding{
		DocumentID: id,
		Embedding:  vec,
		Dimension:  len(vec),
		CreatedAt:  time.Now().UTC(),
	}
}

// writeJSON writes v to a temp file in the target directory and renames it into place.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readJSON decodes path into v. A missing file is ErrNotFound.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func removeQuietly(path string) {
	if err := removeIfExists(path); err != nil {
		logger.Warn("cleanup %s: %v", path, err)
	}
}
