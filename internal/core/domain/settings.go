package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings, LLM or OCR.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderPlaintext reads text files directly (OCR only).
	AIProviderPlaintext AIProvider = "plaintext"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderPlaintext:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderPlaintext
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderPlaintext:
		return "Plain text (no OCR)"
	default:
		return unknownDescription
	}
}

// ProviderSettings holds the connection settings shared by every AI capability.
type ProviderSettings struct {
	// Provider is the service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible gateways).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the provider is set up.
func (s ProviderSettings) IsConfigured() bool {
	if !s.Provider.IsValid() {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings = ProviderSettings

// LLMSettings holds classification LLM provider configuration.
type LLMSettings = ProviderSettings

// OCRSettings holds text extractor configuration.
type OCRSettings = ProviderSettings

// StorageBackend selects the DocumentStore implementation.
type StorageBackend string

// Available storage backends.
const (
	StorageSQLite StorageBackend = "sqlite"
	StorageFile   StorageBackend = "file"
	// StorageMemory keeps everything in process. Nothing survives a restart.
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageSQLite || b == StorageFile || b == StorageMemory
}

// StorageSettings configures local persistence.
type StorageSettings struct {
	Backend StorageBackend

	// DataDir overrides the default ~/.docshelf/data.
	DataDir string
}

// ImageBackend selects where scanned images are kept.
type ImageBackend string

// Available image backends.
const (
	ImagesLocal ImageBackend = "local"
	ImagesS3    ImageBackend = "s3"
)

// ImageSettings configures image persistence.
type ImageSettings struct {
	Backend   ImageBackend
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// RemoteSettings configures the best-effort forward to the relational service.
type RemoteSettings struct {
	// URL is the endpoint receiving document payloads. Empty disables forwarding.
	URL     string
	Token   string
	Timeout time.Duration
}

// Enabled reports whether forwarding is configured.
func (r RemoteSettings) Enabled() bool {
	return r.URL != ""
}

// CacheSettings configures the optional embedding cache.
type CacheSettings struct {
	// RedisAddr enables the cache when set (host:port).
	RedisAddr string
	Password  string
}

// RetrySettings bounds calls to external capabilities.
type RetrySettings struct {
	Attempts          int
	InitialDelay      time.Duration
	RequestsPerSecond float64
}

// SearchSettings holds search defaults.
type SearchSettings struct {
	TopK     int
	MinScore float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Owner is the default owner ID for CLI operations.
	Owner string

	Embedding EmbeddingSettings
	LLM       LLMSettings
	OCR       OCRSettings
	Storage   StorageSettings
	Images    ImageSettings
	Remote    RemoteSettings
	Cache     CacheSettings
	Retry     RetrySettings
	Search    SearchSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; the user sets them via settings.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Owner:   "default",
		OCR:     OCRSettings{Provider: AIProviderPlaintext},
		Storage: StorageSettings{Backend: StorageSQLite},
		Images:  ImageSettings{Backend: ImagesLocal},
		Remote:  RemoteSettings{Timeout: 10 * time.Second},
		Retry: RetrySettings{
			Attempts:          3,
			InitialDelay:      time.Second,
			RequestsPerSecond: 5,
		},
		Search: SearchSettings{
			TopK:     DefaultTopK,
			MinScore: DefaultMinScore,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support classification.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// AllOCRProviders returns providers that can extract text.
func AllOCRProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderOllama,
		AIProviderPlaintext,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// DefaultOCRModels returns default vision models for each OCR provider.
func DefaultOCRModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llava",
		AIProviderOpenAI: "gpt-4o-mini",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
