package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the document index",
	Long:  `Re-embed, verify, or migrate the stored documents and vectors.`,
}

var indexReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-embed documents with the current embedding model",
	Long: `Recomputes every document's embedding from its stored text.

Use --force after switching to a model with a different vector size; the
index dimension is reset before the first vector is written.`,
	Args: cobra.NoArgs,
	RunE: runIndexReindex,
}

var indexVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the index against stored documents",
	Args:  cobra.NoArgs,
	RunE:  runIndexVerify,
}

var indexMigrateCmd = &cobra.Command{
	Use:   "migrate-embeddings",
	Short: "Move inline vectors out of document bodies",
	Args:  cobra.NoArgs,
	RunE:  runIndexMigrate,
}

var (
	reindexForce     bool
	reindexAllOwners bool
	migrateDryRun    bool
)

func init() {
	indexReindexCmd.Flags().BoolVar(&reindexForce, "force", false, "allow the embedding dimension to change")
	indexReindexCmd.Flags().BoolVar(&reindexAllOwners, "all-owners", false, "re-embed every owner's documents")
	indexMigrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "report what would be migrated")

	indexCmd.AddCommand(indexReindexCmd)
	indexCmd.AddCommand(indexVerifyCmd)
	indexCmd.AddCommand(indexMigrateCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexReindex(cmd *cobra.Command, _ []string) error {
	if maintenanceService == nil {
		return errors.New("maintenance service not configured")
	}

	owner := ""
	if !reindexAllOwners {
		owner = currentOwner()
	}

	stats, err := maintenanceService.Reindex(cmd.Context(), owner, reindexForce)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	cmd.Printf("Reindexed %d of %d documents", stats.Reindexed, stats.Total)
	if stats.Failed > 0 {
		cmd.Printf(" (%s)", failMark(fmt.Sprintf("%d failed", stats.Failed)))
	}
	cmd.Println()
	return nil
}

func runIndexVerify(cmd *cobra.Command, _ []string) error {
	if maintenanceService == nil {
		return errors.New("maintenance service not configured")
	}

	report, err := maintenanceService.Verify(cmd.Context())
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if report.Clean() {
		cmd.Printf("%s Index is consistent.\n", okMark("✓"))
		return nil
	}

	printIDs := func(label string, ids []string) {
		if len(ids) == 0 {
			return
		}
		cmd.Printf("  %s (%d):\n", label, len(ids))
		for _, id := range ids {
			cmd.Printf("    %s\n", id)
		}
	}
	cmd.Printf("%s Index has problems:\n", failMark("✗"))
	printIDs("Entries without a document", report.OrphanEntries)
	printIDs("Documents missing from the index", report.MissingEntries)
	printIDs("Entries missing their embedding", report.MissingEmbeddings)
	cmd.Println("Run 'docshelf index reindex' to rebuild missing embeddings.")
	return errors.New("index verification found problems")
}

func runIndexMigrate(cmd *cobra.Command, _ []string) error {
	if maintenanceService == nil {
		return errors.New("maintenance service not configured")
	}

	stats, err := maintenanceService.MigrateInlineEmbeddings(cmd.Context(), migrateDryRun)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	verb := "Migrated"
	if migrateDryRun {
		verb = "Would migrate"
	}
	cmd.Printf("%s %d embeddings (%d documents, %d with inline vectors, %d skipped)\n",
		verb, stats.Migrated, stats.Total, stats.WithEmbeddings, stats.Skipped)
	return nil
}
