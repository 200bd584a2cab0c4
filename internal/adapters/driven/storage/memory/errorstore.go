package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
)

// Ensure ErrorStore implements the interface.
var _ driven.ErrorStore = (*ErrorStore)(nil)

// ErrorStore is an in-memory implementation of driven.ErrorStore.
type ErrorStore struct {
	mu   sync.RWMutex
	docs map[string]domain.ErrorDocument
}

// NewErrorStore creates a new in-memory error store.
func NewErrorStore() *ErrorStore {
	return &ErrorStore{docs: make(map[string]domain.ErrorDocument)}
}

// Save stores a failed document.
func (s *ErrorStore) Save(_ context.Context, doc *domain.ErrorDocument) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *doc
	stored.ID = uuid.New().String()
	if stored.FailedAt.IsZero() {
		stored.FailedAt = time.Now()
	}
	s.docs[stored.ID] = stored
	doc.ID = stored.ID
	return stored.ID, nil
}

// Get retrieves a failed document.
func (s *ErrorStore) Get(_ context.Context, id string) (*domain.ErrorDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// List returns failed documents, newest first.
func (s *ErrorStore) List(_ context.Context) ([]domain.ErrorDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.ErrorDocument, 0, len(s.docs))
	for _, doc := range s.docs {
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].FailedAt.After(result[j].FailedAt)
	})
	return result, nil
}

// Delete removes a failed document.
func (s *ErrorStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}
