package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docshelf/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docshelf/internal/core/domain"
)

func newTestSearchPipeline(store *memory.DocumentStore, embed *mockEmbeddingService) *SearchPipeline {
	return NewSearchPipeline(embed, NewSimilarityEngine(store, embed, fastRetry()), NewResultAssembler(store, nil), fastRetry())
}

func TestSearchPipeline_SingleIdenticalDocument(t *testing.T) {
	store := memory.NewDocumentStore()
	id := seedEmbedded(t, store, "u1", "passport renewal", []float32{0.2, 0.4, 0.9})
	pipeline := newTestSearchPipeline(store, &mockEmbeddingService{embedding: []float32{0.2, 0.4, 0.9}})

	state := pipeline.Run(context.Background(), "passport", domain.SearchOptions{})

	assert.Equal(t, domain.SearchStatusCompleted, state.Status)
	require.Len(t, state.Results, 1)
	assert.Equal(t, id, state.Results[0].DocumentID)
	assert.InDelta(t, 1.0, state.Results[0].Score, 1e-6)
	assert.Equal(t, []string{
		domain.StepNormalizeQuery, domain.StepEmbedding, domain.StepSimilaritySearch, domain.StepResultAssembly,
	}, state.Steps)
}

func TestSearchPipeline_MinScoreFiltersEverything(t *testing.T) {
	store := memory.NewDocumentStore()
	seedEmbedded(t, store, "u1", "kitchen", []float32{1, 0})
	pipeline := newTestSearchPipeline(store, &mockEmbeddingService{embedding: []float32{1, 1}})

	hits, err := pipeline.Search(context.Background(), "query", domain.SearchOptions{MinScore: 0.9})

	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)

	state := pipeline.Run(context.Background(), "query", domain.SearchOptions{MinScore: 0.9})
	assert.Equal(t, domain.SearchStatusNoResults, state.Status)
}

func TestSearchPipeline_EmptyQuery(t *testing.T) {
	embed := &mockEmbeddingService{embedding: []float32{1}}
	pipeline := newTestSearchPipeline(memory.NewDocumentStore(), embed)

	state := pipeline.Run(context.Background(), "   \t ", domain.SearchOptions{})

	assert.Equal(t, domain.SearchStatusNoResults, state.Status)
	assert.Empty(t, state.Results)
	assert.Equal(t, int32(0), embed.calls.Load())
}

func TestSearchPipeline_EmbeddingFailure(t *testing.T) {
	store := memory.NewDocumentStore()
	seedEmbedded(t, store, "u1", "doc", []float32{1, 0})
	pipeline := newTestSearchPipeline(store, &mockEmbeddingService{embedErr: errors.New("offline")})

	state := pipeline.Run(context.Background(), "doc", domain.SearchOptions{})
	assert.Equal(t, domain.SearchStatusEmbeddingFailed, state.Status)
	assert.Contains(t, state.Error, "offline")
	assert.Empty(t, state.Results)

	hits, err := pipeline.Search(context.Background(), "doc", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchPipeline_RetriesTransientEmbeddingFailure(t *testing.T) {
	store := memory.NewDocumentStore()
	id := seedEmbedded(t, store, "u1", "car insurance", []float32{1, 0})
	embed := &mockEmbeddingService{}
	embed.embedFn = func(string) ([]float32, error) {
		if embed.calls.Load() == 1 {
			return nil, errors.New("503 from provider")
		}
		return []float32{1, 0}, nil
	}
	pipeline := newTestSearchPipeline(store, embed)

	state := pipeline.Run(context.Background(), "insurance", domain.SearchOptions{})

	assert.Equal(t, domain.SearchStatusCompleted, state.Status)
	require.Len(t, state.Results, 1)
	assert.Equal(t, id, state.Results[0].DocumentID)
	assert.Equal(t, int32(2), embed.calls.Load())
}

func TestSearchPipeline_EmbeddingFailureIsBounded(t *testing.T) {
	embed := &mockEmbeddingService{embedErr: errors.New("offline")}
	pipeline := newTestSearchPipeline(memory.NewDocumentStore(), embed)

	state := pipeline.Run(context.Background(), "doc", domain.SearchOptions{})

	assert.Equal(t, domain.SearchStatusEmbeddingFailed, state.Status)
	assert.Equal(t, int32(fastRetry().Attempts), embed.calls.Load())
}

func TestSearchPipeline_NoEmbeddingService(t *testing.T) {
	store := memory.NewDocumentStore()
	pipeline := NewSearchPipeline(nil, NewSimilarityEngine(store, nil, nil), NewResultAssembler(store, nil), nil)

	state := pipeline.Run(context.Background(), "doc", domain.SearchOptions{})

	assert.Equal(t, domain.SearchStatusEmbeddingFailed, state.Status)
	assert.Contains(t, state.Error, domain.ErrEmbeddingUnavailable.Error())
}

func TestSearchPipeline_NormalizesQuery(t *testing.T) {
	var seen string
	embed := &mockEmbeddingService{embedFn: func(text string) ([]float32, error) {
		seen = text
		return []float32{1}, nil
	}}
	pipeline := newTestSearchPipeline(memory.NewDocumentStore(), embed)

	state := pipeline.Run(context.Background(), "  utility   bill\n march ", domain.SearchOptions{})

	assert.Equal(t, "utility bill march", state.NormalizedQuery)
	assert.Equal(t, "utility bill march", seen)
	assert.Equal(t, domain.SearchStatusNoResults, state.Status)
}

func TestSearchPipeline_TopKAndOwner(t *testing.T) {
	store := memory.NewDocumentStore()
	for i := 0; i < 4; i++ {
		seedEmbedded(t, store, "u1", "mine", []float32{1, float32(i)})
	}
	seedEmbedded(t, store, "u2", "theirs", []float32{1, 0})
	pipeline := newTestSearchPipeline(store, &mockEmbeddingService{embedding: []float32{1, 0}})

	hits, err := pipeline.Search(context.Background(), "q", domain.SearchOptions{OwnerID: "u1", TopK: 3})

	require.NoError(t, err)
	require.Len(t, hits, 3)
	for _, h := range hits {
		assert.Equal(t, "mine", h.Title)
	}
}
