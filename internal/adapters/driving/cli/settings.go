package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, storage, search defaults and other options.

Every key can also be set through the environment, e.g. DOCSHELF_SEARCH_TOP_K.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single dotted key, for example:

  docshelf settings set search.top_k 10
  docshelf settings set storage.backend file
  docshelf settings set remote.url https://records.example/api/documents

Run 'docshelf settings keys' for the full list.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys and their environment variables",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, key := range services.SettingKeys() {
			cmd.Printf("  %-28s %s\n", key, services.EnvName(key))
		}
	},
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure text extraction, classification and embeddings.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used for semantic search.`,
	RunE:  runSettingsCapability(embeddingCapability),
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider that assigns categories and locations.`,
	RunE:  runSettingsCapability(llmCapability),
}

var settingsOCRCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Configure text extraction",
	Long:  `Configure how text is read from scanned images.`,
	RunE:  runSettingsCapability(ocrCapability),
}

// stdin is swapped in tests.
var stdin io.Reader = os.Stdin

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsOCRCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Printf("Owner: %s\n\n", settings.Owner)

	printProvider(cmd, "OCR", settings.OCR)
	printProvider(cmd, "LLM", settings.LLM)
	printProvider(cmd, "Embedding", settings.Embedding)

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	if settings.Storage.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	}
	cmd.Printf("  Images: %s\n", settings.Images.Backend)
	if settings.Images.Backend == domain.ImagesS3 {
		cmd.Printf("  Endpoint: %s\n", settings.Images.Endpoint)
		cmd.Printf("  Bucket: %s\n", settings.Images.Bucket)
	}
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Top K: %d\n", settings.Search.TopK)
	cmd.Printf("  Min score: %.2f\n", settings.Search.MinScore)
	cmd.Println()

	cmd.Println("[Remote]")
	if settings.Remote.Enabled() {
		cmd.Printf("  URL: %s\n", settings.Remote.URL)
		cmd.Printf("  Timeout: %s\n", settings.Remote.Timeout)
	} else {
		cmd.Println("  Disabled")
	}
	cmd.Println()

	if settings.Cache.RedisAddr != "" {
		cmd.Println("[Cache]")
		cmd.Printf("  Redis: %s\n", settings.Cache.RedisAddr)
		cmd.Println()
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docshelf settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, title string, p domain.ProviderSettings) {
	cmd.Printf("[%s]\n", title)
	cmd.Printf("  Provider: %s\n", p.Provider.Description())
	if p.Model != "" {
		cmd.Printf("  Model: %s\n", p.Model)
	}
	if p.Provider.IsLocal() && p.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", p.BaseURL)
	}
	if p.Provider.RequiresAPIKey() {
		if p.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(p.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !p.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	value := args[1]
	if strings.HasSuffix(args[0], "api_key") || strings.HasSuffix(args[0], "secret_key") ||
		strings.HasSuffix(args[0], "token") || strings.HasSuffix(args[0], "password") {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", args[0], value)
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("docshelf Settings Wizard")
	cmd.Println("========================")
	cmd.Println()

	reader := bufio.NewReader(stdin)

	steps := []capability{ocrCapability, llmCapability, embeddingCapability}
	for i, c := range steps {
		heading := fmt.Sprintf("Step %d: %s", i+1, c.title)
		cmd.Println(heading)
		cmd.Println(strings.Repeat("-", len(heading)))
		cmd.Println(c.purpose)
		cmd.Println()
		if err := configureProvider(cmd, reader, c); err != nil {
			return err
		}
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

// capability describes one configurable AI provider slot.
type capability struct {
	title     string
	purpose   string
	providers func() []domain.AIProvider
	defaults  func() map[domain.AIProvider]string
	set       func(domain.AIProvider, string, string) error
	validate  func() error
}

var (
	ocrCapability = capability{
		title:     "Text Extraction",
		purpose:   "Reads the text from scanned images.",
		providers: domain.AllOCRProviders,
		defaults:  domain.DefaultOCRModels,
		set: func(p domain.AIProvider, model, key string) error {
			return settingsService.SetOCRProvider(p, model, key)
		},
	}
	llmCapability = capability{
		title:     "Classification LLM",
		purpose:   "Assigns a category and storage location to each document.",
		providers: domain.AllLLMProviders,
		defaults:  domain.DefaultLLMModels,
		set: func(p domain.AIProvider, model, key string) error {
			return settingsService.SetLLMProvider(p, model, key)
		},
		validate: func() error { return settingsService.ValidateLLMConfig() },
	}
	embeddingCapability = capability{
		title:     "Embedding Provider",
		purpose:   "Turns document text into vectors for semantic search.",
		providers: domain.AllEmbeddingProviders,
		defaults:  domain.DefaultEmbeddingModels,
		set: func(p domain.AIProvider, model, key string) error {
			return settingsService.SetEmbeddingProvider(p, model, key)
		},
		validate: func() error { return settingsService.ValidateEmbeddingConfig() },
	}
)

func runSettingsCapability(c capability) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		return configureProvider(cmd, bufio.NewReader(stdin), c)
	}
}

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, c capability) error {
	cmd.Printf("Select %s\n", c.title)
	providers := c.providers()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	var model string
	if defaultModel, ok := c.defaults()[selectedProvider]; ok {
		cmd.Printf("Enter model name [%s]: ", defaultModel)
		model = readLine(reader)
		if model == "" {
			model = defaultModel
		}
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := c.set(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s: %w", strings.ToLower(c.title), err)
	}

	// Validate the configuration by pinging the service
	if c.validate != nil {
		cmd.Print("Validating configuration... ")
		if err := c.validate(); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("%s validation failed: %w", strings.ToLower(c.title), err)
		}
		cmd.Println("OK")
	}

	if model != "" {
		cmd.Printf("%s configured: %s (%s)\n\n", c.title, selectedProvider.Description(), model)
	} else {
		cmd.Printf("%s configured: %s\n\n", c.title, selectedProvider.Description())
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo on a terminal, falling back to a plain line.
func readPassword(reader *bufio.Reader) string {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
