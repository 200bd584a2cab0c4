package services

import (
	"context"
	"time"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
	"github.com/custodia-labs/docshelf/internal/logger"
	"github.com/custodia-labs/docshelf/internal/metrics"
)

// Ensure SearchPipeline implements the interface.
var _ driving.SearchService = (*SearchPipeline)(nil)

// SearchPipeline runs query normalisation, embedding, similarity search and result assembly.
type SearchPipeline struct {
	embedding driven.EmbeddingService
	engine    *SimilarityEngine
	assembler *ResultAssembler
	retry     *RetryPolicy
}

// NewSearchPipeline creates a search pipeline.
// The embeddingService parameter is optional; without it every search reports embedding_failed.
// A nil retry policy uses the defaults.
func NewSearchPipeline(
	embeddingService driven.EmbeddingService,
	engine *SimilarityEngine,
	assembler *ResultAssembler,
	retry *RetryPolicy,
) *SearchPipeline {
	if retry == nil {
		retry = NewRetryPolicy(domain.RetrySettings{})
	}
	return &SearchPipeline{
		embedding: embeddingService,
		engine:    engine,
		assembler: assembler,
		retry:     retry,
	}
}

// Search ranks documents against a free-text query.
func (p *SearchPipeline) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	state := p.Run(ctx, query, opts)
	return state.Results, nil
}

// Run executes the pipeline and returns its full state.
// Failures are reported through the state; Results is never nil.
func (p *SearchPipeline) Run(ctx context.Context, query string, opts domain.SearchOptions) *domain.SearchState {
	opts = opts.WithDefaults()
	state := &domain.SearchState{
		Query:   query,
		Options: opts,
		Results: []domain.SearchHit{},
	}

	logger.Section("Search Execution")
	logger.Debug("Query: %q, top_k: %d, min_score: %.2f", query, opts.TopK, opts.MinScore)
	defer func() {
		metrics.SearchTotal.WithLabelValues(state.Status).Inc()
	}()

	state.NormalizedQuery = NormalizeQuery(query)
	state.Steps = append(state.Steps, domain.StepNormalizeQuery)
	if state.NormalizedQuery == "" {
		logger.Debug("Empty query, returning no results")
		state.Status = domain.SearchStatusNoResults
		return state
	}

	start := time.Now()
	vec, err := p.embedQuery(ctx, state.NormalizedQuery)
	observeStep(domain.StepEmbedding, start)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		state.Status = domain.SearchStatusEmbeddingFailed
		state.Error = err.Error()
		return state
	}
	state.Steps = append(state.Steps, domain.StepEmbedding)

	start = time.Now()
	ranked, err := p.engine.Search(ctx, vec, SimilarityOptions{
		OwnerID:  opts.OwnerID,
		TopK:     opts.TopK,
		MinScore: opts.MinScore,
	})
	observeStep(domain.StepSimilaritySearch, start)
	if err != nil {
		logger.Warn("Similarity search failed: %v", err)
		state.Status = domain.SearchStatusNoResults
		state.Error = err.Error()
		return state
	}
	state.Ranked = ranked
	state.Steps = append(state.Steps, domain.StepSimilaritySearch)
	logger.Debug("Ranked %d documents", len(ranked))

	if len(ranked) == 0 {
		state.Status = domain.SearchStatusNoResults
		return state
	}

	start = time.Now()
	state.Results = p.assembler.Assemble(ctx, ranked, opts)
	observeStep(domain.StepResultAssembly, start)
	state.Steps = append(state.Steps, domain.StepResultAssembly)

	state.Status = domain.SearchStatusCompleted
	if len(state.Results) == 0 {
		state.Status = domain.SearchStatusNoResults
	}
	logger.Info("Search returned %d results", len(state.Results))
	return state
}

func (p *SearchPipeline) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if p.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	var vec []float32
	err := p.retry.Do(ctx, "embed", func(ctx context.Context) error {
		v, err := p.embedding.Embed(ctx, query)
		if err != nil {
			return err
		}
		vec = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, domain.ErrEmbeddingUnavailable
	}
	return vec, nil
}
