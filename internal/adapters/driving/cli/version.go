package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the voltdex version",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("voltdex %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
