package driving

import "github.com/custodia-labs/docshelf/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single dotted key (e.g. "search.top_k") and persists it.
	Set(key, value string) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the classification LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetOCRProvider configures the text extractor.
	SetOCRProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the current settings can run ingestion.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
