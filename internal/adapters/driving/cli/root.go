// Package cli implements the voltdex command line interface on top of
// the driving service ports. Commands are wired to concrete services by
// Initialize before Execute runs.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
	"github.com/custodia-labs/voltdex/internal/core/ports/driving"
	"github.com/custodia-labs/voltdex/internal/logger"
)

// Services the commands operate on, set by Initialize.
var (
	ingestService driving.IngestService
	queryService  driving.QueryService
	serveFn       func(addr string) error
	watchFn       func(ctx context.Context, folderRef string) (<-chan driven.SourceFile, error)
)

var errNotInitialized = errors.New("service not configured")

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "voltdex",
	Short: "Index and query electrical documentation",
	Long: `voltdex ingests electrical documentation (one-line diagrams,
panel schedules, specifications), indexes it with domain-aware tags and
embeddings, and answers questions about it.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Deps carries the services the CLI drives.
type Deps struct {
	Ingest driving.IngestService
	Query  driving.QueryService

	// Serve blocks serving the HTTP API on the given address.
	Serve func(addr string) error

	// Watch streams new files under a folder; nil when the configured
	// source does not support watching.
	Watch func(ctx context.Context, folderRef string) (<-chan driven.SourceFile, error)
}

// Initialize wires the commands to concrete services.
func Initialize(deps Deps) {
	ingestService = deps.Ingest
	queryService = deps.Query
	serveFn = deps.Serve
	watchFn = deps.Watch
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
