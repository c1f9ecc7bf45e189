package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/spf13/cobra"
)

type docRow struct {
	Ordinal int          `json:"ordinal"`
	ID      int          `json:"id"`
	Status  index.Status `json:"status"`
	Rating  int          `json:"rating"`
	Terms   int          `json:"terms"`
}

func newDocsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "List indexed documents in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.loadEngine(cmd)
			if err != nil {
				return err
			}
			rows := make([]docRow, 0, engine.DocumentCount())
			for ordinal := 0; ordinal < engine.DocumentCount(); ordinal++ {
				id, err := engine.DocumentID(ordinal)
				if err != nil {
					return err
				}
				doc, err := engine.Document(id)
				if err != nil {
					return err
				}
				rows = append(rows, docRow{Ordinal: ordinal, ID: id, Status: doc.Status, Rating: doc.Rating, Terms: len(doc.Terms)})
			}
			if opts.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDINAL\tID\tSTATUS\tRATING\tTERMS")
			for _, r := range rows {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%d\n", r.Ordinal, r.ID, r.Status, r.Rating, r.Terms)
			}
			return tw.Flush()
		},
	}
}
