package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// SimilarityOptions configures a vector search.
type SimilarityOptions struct {
	OwnerID  string
	TopK     int
	MinScore float64
}

// SimilarityEngine ranks stored documents by cosine similarity.
// It is a full linear scan; the corpus of a household fits in memory.
type SimilarityEngine struct {
	store     driven.DocumentStore
	embedding driven.EmbeddingService
	retry     *RetryPolicy
}

// NewSimilarityEngine creates a similarity engine.
// The embedding service is optional and only used by SearchByText.
// A nil retry policy uses the defaults.
func NewSimilarityEngine(store driven.DocumentStore, embedding driven.EmbeddingService, retry *RetryPolicy) *SimilarityEngine {
	if retry == nil {
		retry = NewRetryPolicy(domain.RetrySettings{})
	}
	return &SimilarityEngine{store: store, embedding: embedding, retry: retry}
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Empty, mismatched or zero-norm vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Search scores every embedded document against query.
// Ties keep listing order.
func (e *SimilarityEngine) Search(ctx context.Context, query []float32, opts SimilarityOptions) ([]domain.RankedResult, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	docs, err := e.store.GetAllWithEmbeddings(ctx, opts.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	logger.Debug("Scoring %d embedded documents", len(docs))

	results := make([]domain.RankedResult, 0, len(docs))
	for i := range docs {
		score := CosineSimilarity(query, docs[i].Embedding)
		if score < opts.MinScore {
			continue
		}
		results = append(results, domain.RankedResult{ID: docs[i].ID, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// SearchByText embeds text and searches with it.
// An embedding failure is logged and yields no results.
func (e *SimilarityEngine) SearchByText(ctx context.Context, text string, opts SimilarityOptions) ([]domain.RankedResult, error) {
	if e.embedding == nil {
		logger.Warn("Search by text without embedding service")
		return []domain.RankedResult{}, nil
	}
	var vec []float32
	err := e.retry.Do(ctx, "embed", func(ctx context.Context) error {
		v, err := e.embedding.Embed(ctx, text)
		if err != nil {
			return err
		}
		vec = v
		return nil
	})
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return []domain.RankedResult{}, nil
	}
	return e.Search(ctx, vec, opts)
}
