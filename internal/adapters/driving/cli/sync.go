package cli

import (
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync <folder-ref>",
	Short: "Ingest new files from a source folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotInitialized
	}

	report, err := ingestService.SyncFolder(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	cmd.Printf("Sync complete: %d found, %d indexed, %d failed\n",
		report.Found, report.Indexed, report.Failed)
	return nil
}
