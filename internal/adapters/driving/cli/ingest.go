package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

var (
	ingestNotes    string
	ingestFileType string
	ingestDryRun   bool
	ingestNoRemote bool
	ingestJSON     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path-or-url...]",
	Short: "Catalog scanned documents",
	Long: `Reads each scanned document, cleans the text, assigns a category and
storage location, embeds it for search and saves it.

Documents that fail are kept in the failed list for review or retry.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestNotes, "notes", "", "free-text notes stored with the document")
	ingestCmd.Flags().StringVar(&ingestFileType, "type", "", "what was scanned (image, pdf, ...)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "run the pipeline without saving")
	ingestCmd.Flags().BoolVar(&ingestNoRemote, "no-remote", false, "skip forwarding to the remote service")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output pipeline state as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	owner := currentOwner()
	failed := 0
	for _, source := range args {
		req := domain.IngestRequest{
			Source:      source,
			OwnerID:     owner,
			UserNotes:   ingestNotes,
			FileType:    ingestFileType,
			SkipPersist: ingestDryRun,
			SkipRemote:  ingestNoRemote,
		}

		state, err := ingestService.Ingest(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", source, err)
		}
		if state.Status.IsFailure() {
			failed++
		}

		if ingestJSON {
			if err := outputIngestJSON(cmd, state); err != nil {
				return err
			}
			continue
		}
		printIngestState(cmd, source, state)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(args))
	}
	return nil
}

func outputIngestJSON(cmd *cobra.Command, state *domain.IngestState) error {
	data, err := json.MarshalIndent(ingestView(state), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// ingestView is the JSON shape of a finished run. The embedding is reduced to its size.
func ingestView(state *domain.IngestState) map[string]any {
	view := map[string]any{
		"source":      state.Request.Source,
		"status":      state.Status,
		"steps":       state.Steps,
		"document_id": state.DocumentID,
		"dimension":   len(state.Embedding),
	}
	if state.ErrorID != "" {
		view["error_id"] = state.ErrorID
	}
	if state.RemoteID != "" {
		view["remote_id"] = state.RemoteID
	}
	if state.Error != "" {
		view["error"] = state.Error
	}
	if state.AssignmentErr != "" {
		view["assignment_error"] = state.AssignmentErr
	}
	if state.EmbeddingErr != "" {
		view["embedding_error"] = state.EmbeddingErr
	}
	if state.Assignment != nil {
		view["assignment"] = state.Assignment
	}
	return view
}

func printIngestState(cmd *cobra.Command, source string, state *domain.IngestState) {
	if state.Status.IsFailure() {
		cmd.Printf("%s %s failed at %s: %s\n", failMark("✗"), source, state.Status.FailedStep(), state.Error)
		if state.ErrorID != "" {
			cmd.Printf("  Saved as failed document %s (retry with 'docshelf failed retry %s')\n", state.ErrorID, state.ErrorID)
		}
		return
	}

	cmd.Printf("%s %s\n", okMark("✓"), source)
	if state.DocumentID != "" {
		cmd.Printf("  Document: %s\n", state.DocumentID)
	} else if state.Request.SkipPersist {
		cmd.Println("  Document: (dry run, not saved)")
	}
	if a := state.Assignment; a != nil {
		if a.CategoryName != "" {
			cmd.Printf("  Category: %s (%s)\n", a.CategoryCode, a.CategoryName)
		} else {
			cmd.Printf("  Category: %s\n", a.CategoryCode)
		}
		if a.HasLocation() {
			cmd.Printf("  Location: %s\n", a.LocationName)
		}
		if len(a.Tags) > 0 {
			cmd.Printf("  Tags:     %s\n", strings.Join(a.Tags, ", "))
		}
	}
	if state.AssignmentErr != "" {
		cmd.Printf("  %s\n", dimText("Unassigned: "+state.AssignmentErr))
	}
	if state.EmbeddingErr != "" {
		cmd.Printf("  %s\n", dimText("Not searchable: "+state.EmbeddingErr))
	}
	if state.RemoteID != "" {
		cmd.Printf("  Remote:   %s\n", state.RemoteID)
	}
	cmd.Printf("  Steps:    %s\n", strings.Join(state.Steps, ", "))
}
