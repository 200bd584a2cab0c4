package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// errorStore implements driven.ErrorStore over errors/.
type errorStore struct {
	store *Store
}

var _ driven.ErrorStore = (*errorStore)(nil)

func (e *errorStore) path(id string) string {
	return filepath.Join(e.store.root, errorsDir, id+".json")
}

// Save writes a failed document under a fresh ID.
func (e *errorStore) Save(_ context.Context, doc *domain.ErrorDocument) (string, error) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	stored := *doc
	stored.ID = uuid.New().String()
	if stored.FailedAt.IsZero() {
		stored.FailedAt = time.Now().UTC()
	}
	if err := writeJSON(e.path(stored.ID), stored); err != nil {
		return "", fmt.Errorf("save error document: %w", err)
	}
	doc.ID = stored.ID
	return stored.ID, nil
}

// Get reads a failed document.
func (e *errorStore) Get(_ context.Context, id string) (*domain.ErrorDocument, error) {
	e.store.mu.RLock()
	defer e.store.mu.RUnlock()

	var doc domain.ErrorDocument
	if err := readJSON(e.path(id), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns failed documents, newest first. Unreadable files are skipped.
func (e *errorStore) List(_ context.Context) ([]domain.ErrorDocument, error) {
	e.store.mu.RLock()
	defer e.store.mu.RUnlock()

	ids, err := e.store.listIDs(errorsDir)
	if err != nil {
		return nil, fmt.Errorf("list error documents: %w", err)
	}
	docs := make([]domain.ErrorDocument, 0, len(ids))
	for _, id := range ids {
		var doc domain.ErrorDocument
		if err := readJSON(e.path(id), &doc); err != nil {
			logger.Warn("skipping error document %s: %v", id, err)
			continue
		}
		docs = append(docs, doc)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].FailedAt.After(docs[j].FailedAt)
	})
	return docs, nil
}

// Delete removes a failed document.
func (e *errorStore) Delete(_ context.Context, id string) error {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	if err := os.Remove(e.path(id)); err != nil {
		if os.IsNotExist(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete error document: %w", err)
	}
	return nil
}
