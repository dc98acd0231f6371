package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/voltdex/internal/core/domain"
)

var (
	queryDocumentID string
	queryPanel      string
	queryVoltage    string
	queryMode       string
	queryTopK       int
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a question over the indexed documentation",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryDocumentID, "document", "", "restrict to one document ID")
	queryCmd.Flags().StringVar(&queryPanel, "panel", "", "filter by panel tag")
	queryCmd.Flags().StringVar(&queryVoltage, "voltage", "", "filter by voltage level")
	queryCmd.Flags().StringVar(&queryMode, "mode", "text", "answer mode: text or diagram")
	queryCmd.Flags().IntVar(&queryTopK, "top-k", 0, "number of matches to use")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errNotInitialized
	}

	question := strings.Join(args, " ")
	result, err := queryService.Query(cmd.Context(), question, domain.QueryOptions{
		DocumentID: queryDocumentID,
		Panel:      queryPanel,
		Voltage:    queryVoltage,
		Mode:       domain.OutputMode(queryMode),
		TopK:       queryTopK,
	})
	if err != nil {
		return err
	}

	cmd.Println(result.Answer)
	cmd.Println()
	cmd.Printf("intent: %s  search: %s\n", result.Intent, result.SearchMode)
	for i, match := range result.Matches {
		cmd.Printf("  [%d] doc %s p.%d (score %.3f)\n",
			i+1, match.Chunk.DocumentID, match.Chunk.PageNumber, match.Score)
	}
	return nil
}
