package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "query <name> <text>",
		Short: "Retrieve the best memories for a text",
		Long: "Rank the nearest memories by relevance, recency and importance and print the top k. " +
			"Returned memories are marked as accessed.",
		Args: cobra.MinimumNArgs(2),
		RunE: runQuery,
	}

	cmd.Flags().IntP("k", "k", 5, "Number of memories to return")
	cmd.Flags().String("now", "", "Query time, ISO-8601 (default: current time)")
	cmd.Flags().Bool("scores", false, "Include score components")

	RootCmd.AddCommand(cmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	k, _ := cmd.Flags().GetInt("k")
	scores, _ := cmd.Flags().GetBool("scores")
	now, err := parseNow(cmd)
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")

	m, cleanup, err := openManager()
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer cleanup()

	db, err := m.Load(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := m.Rank(cmd.Context(), db, text, k, now)
	if err != nil {
		return err
	}

	if scores {
		return printOut(results, func() {
			for _, r := range results {
				fmt.Printf("%.3f\t%s\n", r.Score, r.Description)
			}
		})
	}
	descriptions := make([]string, len(results))
	for i, r := range results {
		descriptions[i] = r.Description
	}
	return printOut(descriptions, func() {
		for _, d := range descriptions {
			fmt.Println(d)
		}
	})
}
