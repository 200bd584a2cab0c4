package services

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyOwner             = "owner"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyOCRProvider       = "ocr.provider"
	keyOCRModel          = "ocr.model"
	keyOCRBaseURL        = "ocr.base_url"
	keyOCRAPIKey         = "ocr.api_key"
	keyStorageBackend    = "storage.backend"
	keyStorageDataDir    = "storage.data_dir"
	keyImagesBackend     = "images.backend"
	keyImagesEndpoint    = "images.endpoint"
	keyImagesBucket      = "images.bucket"
	keyImagesPrefix      = "images.prefix"
	keyImagesAccessKey   = "images.access_key"
	keyImagesSecretKey   = "images.secret_key"
	keyImagesUseSSL      = "images.use_ssl"
	keyRemoteURL         = "remote.url"
	keyRemoteToken       = "remote.token"
	keyRemoteTimeout     = "remote.timeout"
	keyCacheRedisAddr    = "cache.redis_addr"
	keyCachePassword     = "cache.password"
	keyRetryAttempts     = "retry.attempts"
	keyRetryInitialDelay = "retry.initial_delay"
	keyRetryRPS          = "retry.requests_per_second"
	keySearchTopK        = "search.top_k"
	keySearchMinScore    = "search.min_score"
)

// envPrefix prefixes environment overrides, e.g. DOCSHELF_SEARCH_TOP_K.
const envPrefix = "DOCSHELF_"

const defaultOllamaURL = "http://localhost:11434"

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindProvider
)

var settingKeys = map[string]keyKind{
	keyOwner:             kindString,
	keyEmbedProvider:     kindProvider,
	keyEmbedModel:        kindString,
	keyEmbedBaseURL:      kindString,
	keyEmbedAPIKey:       kindString,
	keyLLMProvider:       kindProvider,
	keyLLMModel:          kindString,
	keyLLMBaseURL:        kindString,
	keyLLMAPIKey:         kindString,
	keyOCRProvider:       kindProvider,
	keyOCRModel:          kindString,
	keyOCRBaseURL:        kindString,
	keyOCRAPIKey:         kindString,
	keyStorageBackend:    kindString,
	keyStorageDataDir:    kindString,
	keyImagesBackend:     kindString,
	keyImagesEndpoint:    kindString,
	keyImagesBucket:      kindString,
	keyImagesPrefix:      kindString,
	keyImagesAccessKey:   kindString,
	keyImagesSecretKey:   kindString,
	keyImagesUseSSL:      kindBool,
	keyRemoteURL:         kindString,
	keyRemoteToken:       kindString,
	keyRemoteTimeout:     kindDuration,
	keyCacheRedisAddr:    kindString,
	keyCachePassword:     kindString,
	keyRetryAttempts:     kindInt,
	keyRetryInitialDelay: kindDuration,
	keyRetryRPS:          kindFloat,
	keySearchTopK:        kindInt,
	keySearchMinScore:    kindFloat,
}

// SettingKeys returns every configurable key in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SettingsService manages application settings.
// Values are read from the environment first, then the config store.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Owner: s.getString(keyOwner, defaults.Owner),
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.getString(keyEmbedBaseURL, ""), // empty is valid for cloud providers
			APIKey:   s.getString(keyEmbedAPIKey, ""),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.getString(keyLLMBaseURL, ""),
			APIKey:   s.getString(keyLLMAPIKey, ""),
		},
		OCR: domain.OCRSettings{
			Provider: s.getProvider(keyOCRProvider, defaults.OCR.Provider),
			Model:    s.getString(keyOCRModel, defaults.OCR.Model),
			BaseURL:  s.getString(keyOCRBaseURL, ""),
			APIKey:   s.getString(keyOCRAPIKey, ""),
		},
		Storage: domain.StorageSettings{
			Backend: domain.StorageBackend(s.getString(keyStorageBackend, string(defaults.Storage.Backend))),
			DataDir: s.getString(keyStorageDataDir, defaults.Storage.DataDir),
		},
		Images: domain.ImageSettings{
			Backend:   domain.ImageBackend(s.getString(keyImagesBackend, string(defaults.Images.Backend))),
			Endpoint:  s.getString(keyImagesEndpoint, ""),
			Bucket:    s.getString(keyImagesBucket, ""),
			Prefix:    s.getString(keyImagesPrefix, ""),
			AccessKey: s.getString(keyImagesAccessKey, ""),
			SecretKey: s.getString(keyImagesSecretKey, ""),
			UseSSL:    s.getBool(keyImagesUseSSL, defaults.Images.UseSSL),
		},
		Remote: domain.RemoteSettings{
			URL:     s.getString(keyRemoteURL, ""),
			Token:   s.getString(keyRemoteToken, ""),
			Timeout: s.getDuration(keyRemoteTimeout, defaults.Remote.Timeout),
		},
		Cache: domain.CacheSettings{
			RedisAddr: s.getString(keyCacheRedisAddr, ""),
			Password:  s.getString(keyCachePassword, ""),
		},
		Retry: domain.RetrySettings{
			Attempts:          s.getInt(keyRetryAttempts, defaults.Retry.Attempts),
			InitialDelay:      s.getDuration(keyRetryInitialDelay, defaults.Retry.InitialDelay),
			RequestsPerSecond: s.getFloat(keyRetryRPS, defaults.Retry.RequestsPerSecond),
		},
		Search: domain.SearchSettings{
			TopK:     s.getInt(keySearchTopK, defaults.Search.TopK),
			MinScore: s.getFloat(keySearchMinScore, defaults.Search.MinScore),
		},
	}

	// Provider API keys fall back to the vendor's usual variable.
	s.fillAPIKey(&settings.Embedding)
	s.fillAPIKey(&settings.LLM)
	s.fillAPIKey(&settings.OCR)

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyOwner, settings.Owner},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyOCRProvider, settings.OCR.Provider.String()},
		{keyOCRModel, settings.OCR.Model},
		{keyOCRBaseURL, settings.OCR.BaseURL},
		{keyStorageBackend, string(settings.Storage.Backend)},
		{keyStorageDataDir, settings.Storage.DataDir},
		{keyImagesBackend, string(settings.Images.Backend)},
		{keyImagesEndpoint, settings.Images.Endpoint},
		{keyImagesBucket, settings.Images.Bucket},
		{keyImagesPrefix, settings.Images.Prefix},
		{keyImagesUseSSL, settings.Images.UseSSL},
		{keyRemoteURL, settings.Remote.URL},
		{keyRemoteTimeout, settings.Remote.Timeout.String()},
		{keyCacheRedisAddr, settings.Cache.RedisAddr},
		{keyRetryAttempts, settings.Retry.Attempts},
		{keyRetryInitialDelay, settings.Retry.InitialDelay.String()},
		{keyRetryRPS, settings.Retry.RequestsPerSecond},
		{keySearchTopK, settings.Search.TopK},
		{keySearchMinScore, settings.Search.MinScore},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when set and not taken from the environment.
	secrets := []struct {
		key   string
		value string
	}{
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyLLMAPIKey, settings.LLM.APIKey},
		{keyOCRAPIKey, settings.OCR.APIKey},
		{keyImagesAccessKey, settings.Images.AccessKey},
		{keyImagesSecretKey, settings.Images.SecretKey},
		{keyRemoteToken, settings.Remote.Token},
		{keyCachePassword, settings.Cache.Password},
	}
	for _, v := range secrets {
		if v.value == "" || v.value == s.envValue(v.key) {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// Set parses value for a single key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a duration like 10s", domain.ErrInvalidInput, key)
		}
		parsed = d.String()
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	default:
		parsed = value
	}

	switch key {
	case keyStorageBackend:
		if !domain.StorageBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, value)
		}
	case keyImagesBackend:
		if value != string(domain.ImagesLocal) && value != string(domain.ImagesS3) {
			return fmt.Errorf("%w: unknown image backend %q", domain.ErrInvalidInput, value)
		}
	}

	return s.configStore.Set(key, parsed)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := configureProvider(&settings.Embedding, provider, model, apiKey, domain.DefaultEmbeddingModels()); err != nil {
		return err
	}
	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("provider %s does not support classification", provider)
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := configureProvider(&settings.LLM, provider, model, apiKey, domain.DefaultLLMModels()); err != nil {
		return err
	}
	return s.Save(settings)
}

// SetOCRProvider configures the text extractor.
func (s *SettingsService) SetOCRProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllOCRProviders(), provider) {
		return fmt.Errorf("provider %s does not support text extraction", provider)
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := configureProvider(&settings.OCR, provider, model, apiKey, domain.DefaultOCRModels()); err != nil {
		return err
	}
	return s.Save(settings)
}

func configureProvider(
	cfg *domain.ProviderSettings, provider domain.AIProvider, model, apiKey string, defaults map[domain.AIProvider]string,
) error {
	if provider.RequiresAPIKey() && apiKey == "" && cfg.APIKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	cfg.Provider = provider
	if model != "" {
		cfg.Model = model
	} else {
		cfg.Model = defaults[provider]
	}

	if provider == domain.AIProviderOllama {
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultOllamaURL
		}
	} else {
		// Cloud providers don't need a custom base URL
		cfg.BaseURL = ""
	}

	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	return nil
}

// Validate checks that the current settings can run ingestion.
// Embeddings are optional; without them documents are stored unembedded.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.OCR.IsConfigured() {
		return fmt.Errorf("ingestion requires a text extractor: set ocr.provider")
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("ingestion requires an LLM provider for classification: set llm.provider")
	}
	if settings.Embedding.Provider != "" && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %s is not fully configured", settings.Embedding.Provider)
	}
	if !settings.Storage.Backend.IsValid() {
		return fmt.Errorf("invalid storage backend: %s", settings.Storage.Backend)
	}
	if settings.Images.Backend == domain.ImagesS3 && (settings.Images.Endpoint == "" || settings.Images.Bucket == "") {
		return fmt.Errorf("s3 image storage requires images.endpoint and images.bucket")
	}
	if settings.Search.TopK <= 0 {
		return fmt.Errorf("search.top_k must be positive")
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

// EnvName returns the environment variable overriding key.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (s *SettingsService) envValue(key string) string {
	return s.getenv(EnvName(key))
}

func (s *SettingsService) raw(key string) (string, bool) {
	if v := s.envValue(key); v != "" {
		return v, true
	}
	val, exists := s.configStore.Get(key)
	if !exists {
		return "", false
	}
	return fmt.Sprint(val), true
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val, ok := s.raw(key)
	if !ok || val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val, ok := s.raw(key)
	if !ok {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n == 0 {
		return defaultVal
	}
	return n
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, ok := s.raw(key)
	if !ok {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	val, ok := s.raw(key)
	if !ok {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val, ok := s.raw(key)
	if !ok || val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.getString(key, "")
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) fillAPIKey(cfg *domain.ProviderSettings) {
	if cfg.APIKey != "" {
		return
	}
	switch cfg.Provider {
	case domain.AIProviderOpenAI:
		cfg.APIKey = s.getenv("OPENAI_API_KEY")
	case domain.AIProviderAnthropic:
		cfg.APIKey = s.getenv("ANTHROPIC_API_KEY")
	}
}
