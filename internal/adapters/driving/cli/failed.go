package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "Review documents whose ingestion failed",
	Long: `Documents that could not be read, assigned or embedded are kept here
with the step that failed. Retry them once the cause is fixed.`,
}

var failedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List failed documents",
	Args:  cobra.NoArgs,
	RunE:  runFailedList,
}

var failedShowCmd = &cobra.Command{
	Use:   "show [error-id]",
	Short: "Show a failed document",
	Args:  cobra.ExactArgs(1),
	RunE:  runFailedShow,
}

var failedRetryCmd = &cobra.Command{
	Use:   "retry [error-id]",
	Short: "Re-run a failed document from its stored text",
	Args:  cobra.ExactArgs(1),
	RunE:  runFailedRetry,
}

var failedDeleteCmd = &cobra.Command{
	Use:   "delete [error-id]",
	Short: "Discard a failed document",
	Args:  cobra.ExactArgs(1),
	RunE:  runFailedDelete,
}

func init() {
	failedCmd.AddCommand(failedListCmd)
	failedCmd.AddCommand(failedShowCmd)
	failedCmd.AddCommand(failedRetryCmd)
	failedCmd.AddCommand(failedDeleteCmd)
	rootCmd.AddCommand(failedCmd)
}

func runFailedList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.ListFailed(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list failed documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No failed documents.")
		return nil
	}

	for i := range docs {
		d := &docs[i]
		cmd.Printf("  %s  %s  %s\n", d.ID, d.FailedAt.Format(timeLayout), d.FailedStep)
		cmd.Printf("    Source: %s\n", d.Source)
		cmd.Printf("    Error:  %s\n", d.ErrorMessage)
		cmd.Println()
	}

	cmd.Printf("Total: %d failed documents\n", len(docs))
	return nil
}

func runFailedShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.GetFailed(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get failed document: %w", err)
	}

	cmd.Printf("Failed document: %s\n\n", doc.ID)
	cmd.Printf("  Owner:  %s\n", doc.OwnerID)
	cmd.Printf("  Source: %s\n", doc.Source)
	cmd.Printf("  Step:   %s\n", doc.FailedStep)
	cmd.Printf("  Status: %s\n", doc.Status)
	cmd.Printf("  Failed: %s\n", doc.FailedAt.Format(timeLayout))
	cmd.Printf("  Error:  %s\n", doc.ErrorMessage)
	if doc.RawText != "" {
		cmd.Println("\n  Extracted text:")
		cmd.Println(doc.RawText)
	}
	return nil
}

func runFailedRetry(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	state, err := ingestService.Retry(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to retry document: %w", err)
	}

	printIngestState(cmd, args[0], state)
	if state.Status.IsFailure() {
		return fmt.Errorf("retry of %s failed at %s", args[0], state.Status.FailedStep())
	}
	return nil
}

func runFailedDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.DeleteFailed(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete failed document: %w", err)
	}

	cmd.Printf("Failed document %s deleted.\n", args[0])
	return nil
}
