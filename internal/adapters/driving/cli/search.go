package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

var (
	searchTopK     int
	searchMinScore float64
	searchFull     bool
	searchAll      bool
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search catalogued documents",
	Long: `Finds documents whose meaning is closest to the query using semantic
(embedding) similarity. Each result shows where the paper copy is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 0, "maximum number of results (default from settings)")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "discard results scoring below this")
	searchCmd.Flags().BoolVar(&searchFull, "full", false, "include full text and assignment details")
	searchCmd.Flags().BoolVar(&searchAll, "all-owners", false, "search every owner's documents")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		TopK:            searchTopK,
		MinScore:        searchMinScore,
		IncludeLocation: true,
		IncludeText:     searchFull,
	}
	if !searchAll {
		opts.OwnerID = currentOwner()
	}
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			if opts.TopK <= 0 {
				opts.TopK = s.Search.TopK
			}
			if !cmd.Flags().Changed("min-score") {
				opts.MinScore = s.Search.MinScore
			}
		}
	}

	results, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchHit) error {
	if results == nil {
		results = []domain.SearchHit{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchHit) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		hit := &results[i]
		// Format: [N] Title (Score)
		title := hit.Title
		if title == "" {
			title = hit.DocumentID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, hit.Score)
		if hit.Category != "" {
			cmd.Printf("      Category: %s\n", hit.Category)
		}
		if hit.Location != nil {
			cmd.Printf("      Location: %s\n", hit.Location.Name)
		}
		if hit.Snippet != "" && hit.Snippet != title {
			cmd.Printf("      %s\n", dimText(hit.Snippet))
		}
		cmd.Printf("      ID: %s\n", hit.DocumentID)
		cmd.Println()
	}

	return nil
}
