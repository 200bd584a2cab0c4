package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired in by main.
var (
	ingestService      driving.IngestService
	searchService      driving.SearchService
	documentService    driving.DocumentService
	catalogService     driving.CatalogService
	maintenanceService driving.MaintenanceService
	settingsService    driving.SettingsService
)

var (
	verbose   bool
	ownerFlag string
)

var (
	okMark   = color.New(color.FgGreen, color.Bold).SprintFunc()
	failMark = color.New(color.FgRed, color.Bold).SprintFunc()
	dimText  = color.New(color.Faint).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "docshelf",
	Short: "Catalog household paperwork and find it again",
	Long: `docshelf turns photos and scans of household documents into a searchable
catalog. Each document is read, tidied, assigned a category and a physical
storage location, and embedded for semantic search.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "owner ID (defaults to the configured owner)")
}

// Services groups the driving ports the CLI commands call.
type Services struct {
	Ingest      driving.IngestService
	Search      driving.SearchService
	Document    driving.DocumentService
	Catalog     driving.CatalogService
	Maintenance driving.MaintenanceService
	Settings    driving.SettingsService
}

// SetServices installs the services used by every command.
func SetServices(s Services) {
	ingestService = s.Ingest
	searchService = s.Search
	documentService = s.Document
	catalogService = s.Catalog
	maintenanceService = s.Maintenance
	settingsService = s.Settings
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// currentOwner resolves the owner from the flag, then settings, then the default.
func currentOwner() string {
	if ownerFlag != "" {
		return ownerFlag
	}
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil && s.Owner != "" {
			return s.Owner
		}
	}
	return domain.DefaultAppSettings().Owner
}
