package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/voltdex/internal/core/services"
)

var (
	processName string
	processWait bool
)

var processCmd = &cobra.Command{
	Use:   "process <source-ref>",
	Short: "Register and process a document",
	Long: `Registers a document for the given source reference and runs the
ingestion pipeline. With --wait the command drives batch steps and the
embedding backfill until the document reaches a terminal status.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processName, "name", "", "document name (defaults to the file name)")
	processCmd.Flags().BoolVar(&processWait, "wait", true, "drive batch steps until indexed")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotInitialized
	}

	sourceRef := args[0]
	name := processName
	if name == "" {
		name = filepath.Base(sourceRef)
	}

	ctx := cmd.Context()
	doc, err := ingestService.CreateDocument(ctx, name, sourceRef)
	if err != nil {
		return err
	}
	cmd.Printf("Registered %s as %s\n", name, doc.ID)

	if !processWait {
		if err := ingestService.ProcessDocument(ctx, doc.ID); err != nil {
			return err
		}
		status, err := ingestService.Status(ctx, doc.ID)
		if err != nil {
			return err
		}
		cmd.Printf("Pagination complete: %d pages. Continue with process_batch via the API.\n", status.TotalPages)
		return nil
	}

	poller := services.NewBatchPoller(ingestService)
	status, err := poller.Run(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("processing %s: %w", name, err)
	}

	cmd.Printf("Document %s: %s (%d pages, %d chunks, %d embedded)\n",
		doc.ID, status.Status, status.TotalPages, status.TotalChunks, status.EmbeddedChunks)
	return nil
}
