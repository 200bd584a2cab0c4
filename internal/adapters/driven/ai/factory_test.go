package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docshelf/internal/adapters/driven/extractor/plaintext"
	"github.com/custodia-labs/docshelf/internal/adapters/driven/extractor/vision"
	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
)

// ollamaServer answers the tags endpoint used by every Ollama ping.
func ollamaServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// deadURL points at a closed server so pings fail fast.
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	return srv.URL
}

type stubPrompts struct{}

func (stubPrompts) Load(string) (string, error) { return "prompt", nil }
func (stubPrompts) Reload()                     {}

func TestInitResult_CloseWithNilServices(t *testing.T) {
	result := &InitResult{}
	result.Close()
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  string
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "unconfigured", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{name: "unknown provider is unconfigured", settings: &domain.EmbeddingSettings{Provider: "unknown"}, wantNil: true},
		{name: "openai without key is unconfigured", settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}, wantNil: true},
		{
			name:     "ollama",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
		},
		{
			name:     "openai",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"},
		},
		{
			name:     "anthropic rejected",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantNil:  true,
			wantErr:  "does not support embeddings",
		},
		{
			name:     "plaintext rejected",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderPlaintext},
			wantNil:  true,
			wantErr:  "does not support embeddings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
			} else {
				require.NotNil(t, svc)
				svc.Close()
			}
		})
	}
}

func TestCreateEmbeddingService_OllamaDimensions(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "mxbai-embed-large",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingDimensions()["mxbai-embed-large"], svc.Dimensions())
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantModel string
	}{
		{"ollama", &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"}, "llama3.2"},
		{"openai", &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o-mini"}, "gpt-4o-mini"},
		{"anthropic", &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"}, "claude-3-5-sonnet-latest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}

	_, err := CreateLLMService(&domain.LLMSettings{Provider: domain.AIProviderPlaintext})
	assert.Error(t, err, "plaintext has no language model")

	svc, err := CreateLLMService(nil)
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestCreateTextExtractor(t *testing.T) {
	ext, llm, err := CreateTextExtractor(&domain.OCRSettings{Provider: domain.AIProviderPlaintext}, nil)
	require.NoError(t, err)
	assert.IsType(t, &plaintext.Extractor{}, ext)
	assert.Nil(t, llm)

	ext, llm, err = CreateTextExtractor(&domain.OCRSettings{Provider: domain.AIProviderOllama}, stubPrompts{})
	require.NoError(t, err)
	assert.IsType(t, &vision.Extractor{}, ext)
	require.NotNil(t, llm)
	assert.Equal(t, domain.DefaultOCRModels()[domain.AIProviderOllama], llm.ModelName())

	ext, llm, err = CreateTextExtractor(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, ext)
	assert.Nil(t, llm)
}

func TestCreateAndValidateLLMService(t *testing.T) {
	srv := ollamaServer(t)

	svc, err := CreateAndValidateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL})
	require.NoError(t, err)
	require.NotNil(t, svc)

	_, err = CreateAndValidateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: deadURL(t)})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	srv := ollamaServer(t)

	svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL})
	require.NoError(t, err)
	require.NotNil(t, svc)

	_, err = CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: deadURL(t)})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestValidateConfig(t *testing.T) {
	srv := ollamaServer(t)

	assert.NoError(t, ValidateLLMConfig(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}))
	assert.NoError(t, ValidateEmbeddingConfig(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}))
	assert.Error(t, ValidateLLMConfig(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: deadURL(t)}))
}

func TestInit(t *testing.T) {
	srv := ollamaServer(t)

	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}
	settings.OCR = domain.OCRSettings{Provider: domain.AIProviderOllama, BaseURL: deadURL(t)}

	result := Init(&settings, stubPrompts{}, true)
	defer result.Close()

	assert.NotNil(t, result.EmbeddingService)
	assert.NotNil(t, result.LLMService)
	assert.NotNil(t, result.Classifier)
	assert.Nil(t, result.Extractor, "unreachable OCR model is disabled")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "OCR disabled")
}

func TestInit_WithoutValidation(t *testing.T) {
	settings := domain.AppSettings{
		OCR: domain.OCRSettings{Provider: domain.AIProviderPlaintext},
		LLM: domain.LLMSettings{Provider: domain.AIProviderOpenAI},
	}

	result := Init(&settings, nil, false)
	assert.Nil(t, result.EmbeddingService)
	assert.Nil(t, result.Classifier, "openai without a key is unconfigured")
	assert.NotNil(t, result.Extractor)
	assert.Empty(t, result.Warnings)
}

func TestWithCache_NoAddressIsPassthrough(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama})
	require.NoError(t, err)

	wrapped, err := WithCache(svc, domain.CacheSettings{})
	require.NoError(t, err)
	assert.Same(t, svc, wrapped)
}

func TestCreateClassifier(t *testing.T) {
	llm, err := CreateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOllama})
	require.NoError(t, err)

	var c driven.Classifier = CreateClassifier(llm, stubPrompts{})
	assert.NotNil(t, c)
	_, err = c.Classify(context.Background(), "", nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
