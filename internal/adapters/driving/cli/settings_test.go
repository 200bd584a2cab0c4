package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// ==================== Command Tests ====================

func TestSettingsCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range settingsCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"show", "set", "keys", "wizard", "embedding", "llm", "ocr"} {
		assert.Contains(t, names, want)
	}
}

func TestSettingsShow(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Owner: alice")
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "API Key: sk-t...7890")
	assert.NotContains(t, out, "sk-test-1234567890")
	assert.Contains(t, out, "Backend: sqlite")
	assert.Contains(t, out, "Top K: 5")
	assert.Contains(t, out, "Disabled", "remote forwarding is off by default")
	assert.Contains(t, out, "Warning: LLM provider not configured")
}

func TestSettingsShow_ServiceNotConfigured(t *testing.T) {
	old := settingsService
	settingsService = nil
	defer func() { settingsService = old }()

	_, err := executeCommand("settings", "show")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}

func TestSettingsSet(t *testing.T) {
	mocks, cleanup := installTestServices()
	defer cleanup()

	out, err := executeCommand("settings", "set", "search.top_k", "10")

	require.NoError(t, err)
	assert.Equal(t, "10", mocks.settings.sets["search.top_k"])
	assert.Contains(t, out, "search.top_k = 10")
}

func TestSettingsSet_MasksSecrets(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("settings", "set", "llm.api_key", "sk-ant-secret-value")

	require.NoError(t, err)
	assert.NotContains(t, out, "secret-value")
	assert.Contains(t, out, "llm.api_key = sk-a...alue")
}

func TestSettingsSet_InvalidKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("settings", "set", "bogus", "1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsKeys_ListsEnvNames(t *testing.T) {
	out, err := executeCommand("settings", "keys")

	require.NoError(t, err)
	assert.Contains(t, out, "search.top_k")
	assert.Contains(t, out, "DOCSHELF_SEARCH_TOP_K")
	assert.Contains(t, out, "DOCSHELF_IMAGES_BUCKET")
}

func TestSettingsLLM_Interactive(t *testing.T) {
	mocks, cleanup := installTestServices()
	defer cleanup()
	oldStdin := stdin
	// Choice 3 is Anthropic; keep the default model; then the key.
	stdin = strings.NewReader("3\n\nsk-ant-key-123456\n")
	defer func() { stdin = oldStdin }()

	out, err := executeCommand("settings", "llm")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, mocks.settings.settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", mocks.settings.settings.LLM.Model)
	assert.Equal(t, "sk-ant-key-123456", mocks.settings.settings.LLM.APIKey)
	assert.Contains(t, out, "Validating configuration... OK")
}

func TestSettingsOCR_PlaintextSkipsModel(t *testing.T) {
	mocks, cleanup := installTestServices()
	defer cleanup()
	oldStdin := stdin
	stdin = strings.NewReader("3\n")
	defer func() { stdin = oldStdin }()

	out, err := executeCommand("settings", "ocr")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderPlaintext, mocks.settings.settings.OCR.Provider)
	assert.NotContains(t, out, "Enter model name")
}

func TestSettingsEmbedding_MissingKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	oldStdin := stdin
	// OpenAI requires a key; none given.
	stdin = strings.NewReader("2\n\n\n")
	defer func() { stdin = oldStdin }()

	_, err := executeCommand("settings", "embedding")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestSettingsWizard_ConfiguresEverySlot(t *testing.T) {
	mocks, cleanup := installTestServices()
	defer cleanup()
	oldStdin := stdin
	// OCR: plaintext. LLM: Ollama with default model. Embedding: Ollama with a custom model.
	stdin = strings.NewReader("3\n1\n\n1\nmxbai-embed-large\n")
	defer func() { stdin = oldStdin }()

	out, err := executeCommand("settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderPlaintext, mocks.settings.settings.OCR.Provider)
	assert.Equal(t, domain.AIProviderOllama, mocks.settings.settings.LLM.Provider)
	assert.Equal(t, "llama3.2", mocks.settings.settings.LLM.Model)
	assert.Equal(t, "mxbai-embed-large", mocks.settings.settings.Embedding.Model)
	assert.Contains(t, out, "Step 3: Embedding Provider")
	assert.Contains(t, out, "All settings are valid and saved.")
}
