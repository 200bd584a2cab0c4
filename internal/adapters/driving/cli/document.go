package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage catalogued documents",
	Long:  `List, view, or delete catalogued documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents for the current owner",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its stored image",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var (
	documentListAll bool
	documentRaw     bool
)

func init() {
	documentListCmd.Flags().BoolVar(&documentListAll, "all-owners", false, "list every owner's documents")
	documentContentCmd.Flags().BoolVar(&documentRaw, "raw", false, "print the uncleaned OCR text")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	owner := ""
	if !documentListAll {
		owner = currentOwner()
	}

	entries, err := documentService.List(cmd.Context(), owner)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(entries) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range entries {
		e := &entries[i]
		cmd.Printf("  %s\n", e.ID)
		cmd.Printf("    %s\n", e.TextPreview)
		if e.CategoryCode != "" {
			cmd.Printf("    Category: %s", e.CategoryCode)
			if e.LocationName != "" {
				cmd.Printf("  Location: %s", e.LocationName)
			}
			cmd.Println()
		}
		if !e.HasEmbedding {
			cmd.Printf("    %s\n", dimText("not searchable (no embedding)"))
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(entries))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, emb, err := documentService.Get(cmd.Context(), args[0], true)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Owner:      %s\n", doc.OwnerID)
	cmd.Printf("  Source:     %s\n", doc.Source)
	if doc.ImagePath != "" {
		cmd.Printf("  Image:      %s\n", doc.ImagePath)
	}
	cmd.Printf("  Type:       %s\n", doc.FileType)
	cmd.Printf("  Status:     %s\n", doc.Status)
	cmd.Printf("  Created:    %s\n", doc.CreatedAt.Format(timeLayout))
	cmd.Printf("  Confidence: %.2f\n", doc.OCRConfidence)
	if len(emb) > 0 {
		cmd.Printf("  Embedding:  %d dimensions\n", len(emb))
	} else {
		cmd.Println("  Embedding:  none")
	}
	if len(doc.Steps) > 0 {
		cmd.Printf("  Steps:      %s\n", strings.Join(doc.Steps, ", "))
	}
	if doc.UserNotes != "" {
		cmd.Printf("  Notes:      %s\n", doc.UserNotes)
	}

	if a := doc.Assignment; a != nil {
		cmd.Println("\n  Assignment:")
		cmd.Printf("    Category: %s %s\n", a.CategoryCode, a.CategoryName)
		if a.HasLocation() {
			cmd.Printf("    Location: %s (#%d)\n", a.LocationName, a.LocationID)
		}
		if a.Reason != "" {
			cmd.Printf("    Reason:   %s\n", a.Reason)
		}
		if len(a.Tags) > 0 {
			cmd.Printf("    Tags:     %s\n", strings.Join(a.Tags, ", "))
		}
	}

	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, _, err := documentService.Get(cmd.Context(), args[0], false)
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	if documentRaw {
		cmd.Println(doc.RawText)
		return nil
	}
	cmd.Println(doc.Text)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}
