package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
)

// fastRetry avoids real backoff sleeps in tests.
func fastRetry() *RetryPolicy {
	return &RetryPolicy{Attempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
	embedFn   func(text string) ([]float32, error)
	dims      int
	calls     atomic.Int32
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = vec
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return len(m.embedding)
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockClassifier implements driven.Classifier for testing.
type mockClassifier struct {
	proposal *domain.Proposal
	err      error
	// failures makes the first n calls fail with err before returning proposal.
	failures int32
	calls    atomic.Int32

	mu       sync.Mutex
	seenCats []domain.Category
	seenLocs []domain.Location
}

func (m *mockClassifier) Classify(
	_ context.Context, _ string, cats []domain.Category, locs []domain.Location,
) (*domain.Proposal, error) {
	n := m.calls.Add(1)
	m.mu.Lock()
	m.seenCats, m.seenLocs = cats, locs
	m.mu.Unlock()
	if m.err != nil && (m.failures == 0 || n <= m.failures) {
		return nil, m.err
	}
	return m.proposal, nil
}

// mockExtractor implements driven.TextExtractor for testing.
type mockExtractor struct {
	text       string
	confidence float64
	err        error
	calls      atomic.Int32
}

func (m *mockExtractor) ExtractText(_ context.Context, _ string) (*domain.Extraction, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Extraction{Text: m.text, Confidence: m.confidence, Pages: 1}, nil
}

// mockImageStore implements driven.ImageStore for testing.
type mockImageStore struct {
	mu      sync.Mutex
	saved   map[string]string
	deleted []string
	saveErr error
}

func newMockImageStore() *mockImageStore {
	return &mockImageStore{saved: make(map[string]string)}
}

func (m *mockImageStore) Save(_ context.Context, id, source string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", m.saveErr
	}
	ref := "images/" + id + ".jpg"
	m.saved[ref] = source
	return ref, nil
}

func (m *mockImageStore) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	delete(m.saved, ref)
	return nil
}

// mockRemote implements driven.RemotePersister for testing.
type mockRemote struct {
	mu       sync.Mutex
	payloads []domain.RemotePayload
	id       string
	err      error
}

func (m *mockRemote) PersistRemote(_ context.Context, payload domain.RemotePayload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	if m.err != nil {
		return "", m.err
	}
	return m.id, nil
}

var (
	_ driven.EmbeddingService = (*mockEmbeddingService)(nil)
	_ driven.Classifier       = (*mockClassifier)(nil)
	_ driven.TextExtractor    = (*mockExtractor)(nil)
	_ driven.ImageStore       = (*mockImageStore)(nil)
	_ driven.RemotePersister  = (*mockRemote)(nil)
)
