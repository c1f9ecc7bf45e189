package cli

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/spf13/cobra"
)

func newSearchCmd(opts *options) *cobra.Command {
	var (
		status    string
		minRating int
		parity    string
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Print the top documents for a query",
		Long: `Ranks documents by TF-IDF relevance and prints at most five.
Words prefixed with '-' exclude every document containing them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := searchPredicate(cmd, status, minRating, parity)
			if err != nil {
				return err
			}
			engine, err := opts.loadEngine(cmd)
			if err != nil {
				return err
			}
			docs, err := executor.New(engine).FindTopDocuments(args[0], pred)
			if err != nil {
				return err
			}
			return writeResults(cmd.OutOrStdout(), opts.format, docs)
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "ACTUAL", "Only documents with this status")
	cmd.Flags().IntVar(&minRating, "min-rating", 0, "Only documents rated at least this")
	cmd.Flags().StringVar(&parity, "parity", "", "Only even or odd document ids (replaces --status)")
	return cmd
}

func searchPredicate(cmd *cobra.Command, status string, minRating int, parity string) (ranker.Predicate, error) {
	var preds []ranker.Predicate
	switch parity {
	case "":
		s, err := index.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		preds = append(preds, ranker.ByStatus(s))
	case "even", "odd":
		want := 0
		if parity == "odd" {
			want = 1
		}
		preds = append(preds, func(id int, _ index.Status, _ int) bool {
			return id%2 == want
		})
	default:
		return nil, fmt.Errorf("--parity must be even or odd, got %q", parity)
	}
	if cmd.Flags().Changed("min-rating") {
		preds = append(preds, ranker.MinRating(minRating))
	}
	return ranker.All(preds...), nil
}
