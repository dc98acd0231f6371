package cli

import (
	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage indexed documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered documents",
	RunE:  runDocumentsList,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

var documentsStatusCmd = &cobra.Command{
	Use:   "status <document-id>",
	Short: "Show pipeline progress for a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsStatus,
}

func init() {
	documentsCmd.AddCommand(documentsListCmd, documentsDeleteCmd, documentsStatusCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotInitialized
	}

	docs, err := ingestService.ListDocuments(cmd.Context())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		cmd.Println("No documents registered.")
		return nil
	}

	for _, doc := range docs {
		cmd.Printf("%s  %-10s  %3d pages  %s\n", doc.ID, doc.Status, doc.PageCount, doc.Name)
		if doc.StatusMessage != "" {
			cmd.Printf("  %s\n", doc.StatusMessage)
		}
	}
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotInitialized
	}

	if err := ingestService.DeleteDocument(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}

func runDocumentsStatus(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotInitialized
	}

	status, err := ingestService.Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	cmd.Printf("document: %s\n", status.DocumentID)
	cmd.Printf("status:   %s\n", status.Status)
	if status.StatusMessage != "" {
		cmd.Printf("message:  %s\n", status.StatusMessage)
	}
	cmd.Printf("phase:    %s\n", status.Phase)
	cmd.Printf("pages:    %d/%d\n", status.ProcessedPages, status.TotalPages)
	cmd.Printf("chunks:   %d (%d embedded)\n", status.TotalChunks, status.EmbeddedChunks)
	return nil
}
