// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docshelf/internal/adapters/driven/classifier"
	"github.com/custodia-labs/docshelf/internal/adapters/driven/embedding/cache"
	ollamaembed "github.com/custodia-labs/docshelf/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docshelf/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docshelf/internal/adapters/driven/extractor/plaintext"
	"github.com/custodia-labs/docshelf/internal/adapters/driven/extractor/vision"
	anthropicllm "github.com/custodia-labs/docshelf/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/docshelf/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docshelf/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

const fixHint = "Run 'docshelf settings show' to review the configuration"

// InitResult holds the AI capabilities built from settings.
// Any field may be nil when its capability is not configured or unreachable.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	OCRService       driven.LLMService
	Extractor        driven.TextExtractor
	Classifier       driven.Classifier
	Warnings         []string // Non-fatal issues that disabled a capability.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
	if r.OCRService != nil && r.OCRService != r.LLMService {
		r.OCRService.Close()
	}
}

// Init builds every AI capability from settings. Failures are recorded as
// warnings so the pipeline can still run in a degraded mode; with validate
// set, each service is pinged before use.
func Init(settings *domain.AppSettings, prompts driven.PromptStore, validate bool) *InitResult {
	result := &InitResult{}

	embedder, err := buildEmbedding(&settings.Embedding, validate)
	if err != nil {
		result.warn("embeddings disabled: %v", err)
	} else if embedder != nil {
		if settings.Cache.RedisAddr != "" {
			cached, cerr := WithCache(embedder, settings.Cache)
			if cerr != nil {
				result.warn("embedding cache disabled: %v", cerr)
			} else {
				embedder = cached
			}
		}
		result.EmbeddingService = embedder
	}

	llm, err := buildLLM(&settings.LLM, validate)
	if err != nil {
		result.warn("classification disabled: %v", err)
	} else if llm != nil {
		result.LLMService = llm
		result.Classifier = CreateClassifier(llm, prompts)
	}

	ocr, ocrLLM, err := CreateTextExtractor(&settings.OCR, prompts)
	if err == nil && ocrLLM != nil && validate {
		err = ping(ocrLLM.Ping)
		if err != nil {
			ocrLLM.Close()
		}
	}
	if err != nil {
		result.warn("OCR disabled: %v", err)
	} else {
		result.Extractor = ocr
		result.OCRService = ocrLLM
	}

	return result
}

func (r *InitResult) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn("%s", msg)
	r.Warnings = append(r.Warnings, msg)
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return buildEmbedding(settings, true)
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	return buildLLM(settings, true)
}

func buildEmbedding(settings *domain.EmbeddingSettings, validate bool) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	if svc == nil || !validate {
		return svc, nil
	}
	if err := ping(svc.Ping); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	return svc, nil
}

func buildLLM(settings *domain.LLMSettings, validate bool) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	if svc == nil || !validate {
		return svc, nil
	}
	if err := ping(svc.Ping); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	return svc, nil
}

func ping(fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return fn(ctx)
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc.Ping)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc.Ping)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderAnthropic, domain.AIProviderPlaintext:
		return nil, fmt.Errorf("%s does not support embeddings, use ollama or openai", settings.Provider)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// WithCache wraps an embedding service with the Redis-backed cache.
func WithCache(svc driven.EmbeddingService, settings domain.CacheSettings) (driven.EmbeddingService, error) {
	if settings.RedisAddr == "" {
		return svc, nil
	}
	cached, err := cache.New(svc, cache.Config{Addr: settings.RedisAddr, Password: settings.Password})
	if err != nil {
		return nil, err
	}
	return cached, nil
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderAnthropic:
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateTextExtractor builds the OCR adapter. Vision providers also return the
// chat service backing the extractor so the caller can ping and close it.
// Returns nil if OCR is not configured.
func CreateTextExtractor(
	settings *domain.OCRSettings,
	prompts driven.PromptStore,
) (driven.TextExtractor, driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil, nil
	}
	if settings.Provider == domain.AIProviderPlaintext {
		return plaintext.New(), nil, nil
	}

	cfg := *settings
	if cfg.Model == "" {
		cfg.Model = domain.DefaultOCRModels()[cfg.Provider]
	}
	llm, err := CreateLLMService(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrExtractorUnavailable, err)
	}

	ext := vision.New(llm)
	if prompts != nil {
		ext.SetPromptStore(prompts)
	}
	return ext, llm, nil
}

// CreateClassifier wraps an LLM in the JSON-proposal classifier.
func CreateClassifier(llm driven.LLMService, prompts driven.PromptStore) driven.Classifier {
	c := classifier.New(llm)
	if prompts != nil {
		c.SetPromptStore(prompts)
	}
	return c
}
