package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docshelf/internal/adapters/driven/catalog"
	"github.com/custodia-labs/docshelf/internal/core/domain"
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage document categories",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE:  runCategoryList,
}

var categoryAddCmd = &cobra.Command{
	Use:   "add [code]",
	Short: "Create a category",
	Long: `Creates a category with a 2-4 letter upper-case code. Canonical codes
(TAX, BANK, MED, ...) get their standard name and description when omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: runCategoryAdd,
}

var categoryImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import categories from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryImport,
}

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Manage storage locations",
}

var locationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List storage locations",
	Args:  cobra.NoArgs,
	RunE:  runLocationList,
}

var locationImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import storage locations from a YAML or JSON file",
	Long: `Loads the location catalog from a file. Each entry needs an id and a
name; description, photo_url and parent_id are optional. Existing IDs are
overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runLocationImport,
}

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Manage category to location mappings",
}

var mappingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mappings",
	Args:  cobra.NoArgs,
	RunE:  runMappingList,
}

var mappingSetCmd = &cobra.Command{
	Use:   "set [category-code] [location-id]",
	Short: "Prefer a location for a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runMappingSet,
}

var (
	categoryName        string
	categoryDescription string
	mappingCategory     string
	mappingPriority     int
	mappingDeny         bool
)

func init() {
	categoryAddCmd.Flags().StringVar(&categoryName, "name", "", "display name")
	categoryAddCmd.Flags().StringVar(&categoryDescription, "description", "", "description")
	mappingListCmd.Flags().StringVarP(&mappingCategory, "category", "c", "", "only mappings for this category code")
	mappingSetCmd.Flags().IntVarP(&mappingPriority, "priority", "p", domain.DefaultMappingPriority, "higher wins")
	mappingSetCmd.Flags().BoolVar(&mappingDeny, "deny", false, "forbid the location for this category")

	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryImportCmd)
	locationCmd.AddCommand(locationListCmd)
	locationCmd.AddCommand(locationImportCmd)
	mappingCmd.AddCommand(mappingListCmd)
	mappingCmd.AddCommand(mappingSetCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(locationCmd)
	rootCmd.AddCommand(mappingCmd)
}

func runCategoryList(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	categories, err := catalogService.ListCategories(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	if len(categories) == 0 {
		cmd.Println("No categories yet. They are created as documents are assigned.")
		return nil
	}

	for i := range categories {
		c := &categories[i]
		cmd.Printf("  %-5s %s\n", c.Code, c.Name)
		if c.Description != "" {
			cmd.Printf("        %s\n", dimText(c.Description))
		}
	}
	return nil
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	code := domain.NormalizeCode(args[0])
	name, description := categoryName, categoryDescription
	if name == "" {
		suggestion := domain.SuggestionFor(code)
		name = suggestion.Name
		if description == "" {
			description = suggestion.Description
		}
	}

	cat, err := catalogService.EnsureCategory(cmd.Context(), code, name, description)
	if err != nil {
		return fmt.Errorf("failed to add category: %w", err)
	}

	cmd.Printf("Category %s (%s) ready.\n", cat.Code, cat.Name)
	return nil
}

func runCategoryImport(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	categories, err := catalog.LoadCategories(args[0])
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	n, err := catalogService.ImportCategories(cmd.Context(), categories)
	if err != nil {
		return fmt.Errorf("failed to import categories: %w", err)
	}

	cmd.Printf("Imported %d categories.\n", n)
	return nil
}

func runLocationList(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	locations, err := catalogService.ListLocations(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list locations: %w", err)
	}
	if len(locations) == 0 {
		cmd.Println("No locations. Import them with 'docshelf location import'.")
		return nil
	}

	for i := range locations {
		l := &locations[i]
		cmd.Printf("  %4d  %s\n", l.ID, l.Name)
		if l.Description != "" {
			cmd.Printf("        %s\n", dimText(l.Description))
		}
	}
	return nil
}

func runLocationImport(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	locations, err := catalog.LoadLocations(args[0])
	if err != nil {
		return fmt.Errorf("failed to load locations: %w", err)
	}

	n, err := catalogService.ImportLocations(cmd.Context(), locations)
	if err != nil {
		return fmt.Errorf("failed to import locations: %w", err)
	}

	cmd.Printf("Imported %d locations.\n", n)
	return nil
}

func runMappingList(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	ctx := cmd.Context()
	mappings, err := catalogService.ListMappings(ctx, domain.NormalizeCode(mappingCategory))
	if err != nil {
		return fmt.Errorf("failed to list mappings: %w", err)
	}
	if len(mappings) == 0 {
		cmd.Println("No mappings.")
		return nil
	}

	// Resolve IDs to display names; missing lookups fall back to the raw IDs.
	codes := map[int64]string{}
	if cats, err := catalogService.ListCategories(ctx); err == nil {
		for _, c := range cats {
			codes[c.ID] = c.Code
		}
	}
	names := map[int64]string{}
	if locs, err := catalogService.ListLocations(ctx); err == nil {
		for _, l := range locs {
			names[l.ID] = l.Name
		}
	}

	for _, m := range mappings {
		code := codes[m.CategoryID]
		if code == "" {
			code = strconv.FormatInt(m.CategoryID, 10)
		}
		name := names[m.LocationID]
		if name == "" {
			name = "#" + strconv.FormatInt(m.LocationID, 10)
		}
		state := "allowed"
		if !m.Allowed {
			state = "denied"
		}
		cmd.Printf("  %-5s -> %-24s priority %2d  %s\n", code, name, m.Priority, state)
	}
	return nil
}

func runMappingSet(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	code := domain.NormalizeCode(args[0])
	locationID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || locationID <= 0 {
		return fmt.Errorf("invalid location id %q", args[1])
	}

	if err := catalogService.SetMapping(cmd.Context(), code, locationID, mappingPriority, !mappingDeny); err != nil {
		return fmt.Errorf("failed to set mapping: %w", err)
	}

	cmd.Printf("Mapping %s -> %d saved.\n", code, locationID)
	return nil
}
