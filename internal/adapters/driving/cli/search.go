package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	searchK      int
	searchFilter []string
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [library-id] [query-text]",
	Short: "Embed a query and return its nearest chunks",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchK, "k", 10, "number of results to return")
	searchCmd.Flags().StringArrayVar(&searchFilter, "filter", nil, `metadata filter, e.g. "lang == en" or "score >= 0.5" or "tag in a,b,c" (repeatable, AND-ed)`)
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	filter, err := parseFilter(searchFilter)
	if err != nil {
		return err
	}

	hits, err := libraryService.Search(context.Background(), args[0], args[1], searchK, filter)
	if err != nil {
		return err
	}

	if searchJSON {
		return printJSON(cmd, hits)
	}
	if len(hits) == 0 {
		cmd.Println("no results")
		return nil
	}
	for _, hit := range hits {
		cmd.Printf("%.4f\t%s\t%s\n", hit.Score, hit.Chunk.ID, truncate(hit.Chunk.Content, 80))
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
