package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu         sync.RWMutex
	documents  map[string]domain.DocumentRecord
	embeddings map[string][]float32
	order      []string
	dimension  int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents:  make(map[string]domain.DocumentRecord),
		embeddings: make(map[string][]float32),
	}
}

// Save stores a document with an optional embedding.
func (s *DocumentStore) Save(_ context.Context, rec *domain.DocumentRecord, embedding []float32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(embedding) > 0 && s.dimension != 0 && len(embedding) != s.dimension {
		return "", fmt.Errorf("save document: %w: got %d, index has %d",
			domain.ErrDimensionMismatch, len(embedding), s.dimension)
	}

	doc := *rec
	doc.ID = uuid.New().String()
	doc.HasEmbedding = len(embedding) > 0
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	s.documents[doc.ID] = doc
	if doc.HasEmbedding {
		s.embeddings[doc.ID] = append([]float32(nil), embedding...)
		if s.dimension == 0 {
			s.dimension = len(embedding)
		}
	}
	s.order = append(s.order, doc.ID)

	rec.ID = doc.ID
	rec.HasEmbedding = doc.HasEmbedding
	rec.CreatedAt = doc.CreatedAt
	return doc.ID, nil
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(_ context.Context, id string, includeEmbedding bool) (*domain.DocumentRecord, []float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	var emb []float32
	if includeEmbedding {
		emb = append([]float32(nil), s.embeddings[id]...)
	}
	return &doc, emb, nil
}

// GetEmbedding retrieves only the vector for a document.
func (s *DocumentStore) GetEmbedding(_ context.Context, id string) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emb, ok := s.embeddings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]float32(nil), emb...), nil
}

// SaveEmbedding replaces the vector for an existing document.
func (s *DocumentStore) SaveEmbedding(_ context.Context, id string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	if s.dimension != 0 && len(embedding) != s.dimension {
		return fmt.Errorf("save embedding: %w", domain.ErrDimensionMismatch)
	}
	if s.dimension == 0 {
		s.dimension = len(embedding)
	}
	s.embeddings[id] = append([]float32(nil), embedding...)
	doc.HasEmbedding = true
	s.documents[id] = doc
	return nil
}

// ListAll returns index entries in insertion order.
func (s *DocumentStore) ListAll(_ context.Context, ownerID string) ([]domain.IndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.IndexEntry, 0, len(s.order))
	for _, id := range s.order {
		doc := s.documents[id]
		if ownerID != "" && doc.OwnerID != ownerID {
			continue
		}
		result = append(result, domain.NewIndexEntry(&doc))
	}
	return result, nil
}

// GetAllWithEmbeddings loads every embedded document.
func (s *DocumentStore) GetAllWithEmbeddings(_ context.Context, ownerID string) ([]domain.EmbeddedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.EmbeddedDocument
	for _, id := range s.order {
		doc := s.documents[id]
		if ownerID != "" && doc.OwnerID != ownerID {
			continue
		}
		emb, ok := s.embeddings[id]
		if !doc.HasEmbedding || !ok {
			continue
		}
		result = append(result, domain.EmbeddedDocument{
			ID:         doc.ID,
			OwnerID:    doc.OwnerID,
			Text:       doc.Text,
			Embedding:  emb,
			Assignment: doc.Assignment,
			CreatedAt:  doc.CreatedAt,
		})
	}
	return result, nil
}

// Delete removes a document and its embedding.
func (s *DocumentStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return false, nil
	}
	delete(s.documents, id)
	delete(s.embeddings, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Dimension returns the fixed embedding dimension.
func (s *DocumentStore) Dimension(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension, nil
}

// ResetDimension clears the fixed dimension.
func (s *DocumentStore) ResetDimension(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = 0
	return nil
}

// Verify reports documents flagged as embedded without a stored vector.
func (s *DocumentStore) Verify(_ context.Context) (*domain.IntegrityReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report := &domain.IntegrityReport{}
	for _, id := range s.order {
		doc := s.documents[id]
		if _, ok := s.embeddings[id]; doc.HasEmbedding && !ok {
			report.MissingEmbeddings = append(report.MissingEmbeddings, id)
		}
	}
	return report, nil
}
