package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/voltdex/internal/core/services"
	"github.com/custodia-labs/voltdex/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch <folder-ref>",
	Short: "Watch a source folder and ingest new files as they appear",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotInitialized
	}
	if watchFn == nil {
		return errors.New("the configured source does not support watching")
	}

	ctx := cmd.Context()
	events, err := watchFn(ctx, args[0])
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s. Press Ctrl-C to stop.\n", args[0])
	poller := services.NewBatchPoller(ingestService)

	for file := range events {
		doc, err := ingestService.CreateDocument(ctx, file.Name, file.Ref)
		if err != nil {
			logger.Warn("Registering %s failed: %v", file.Name, err)
			continue
		}

		status, err := poller.Run(ctx, doc.ID)
		if err != nil {
			logger.Warn("Processing %s failed: %v", file.Name, err)
			continue
		}
		cmd.Printf("%s: %s (%d chunks)\n", file.Name, status.Status, status.TotalChunks)
	}
	return nil
}
