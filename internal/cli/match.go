package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/spf13/cobra"
)

type matchOutput struct {
	DocumentID int          `json:"document_id"`
	Status     index.Status `json:"status"`
	Terms      []string     `json:"terms"`
}

func newMatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "match <query> <document-id>",
		Short: "List the query words a document contains",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("document id must be an integer, got %q", args[1])
			}
			engine, err := opts.loadEngine(cmd)
			if err != nil {
				return err
			}
			terms, status, err := executor.New(engine).MatchDocument(args[0], id)
			if err != nil {
				return err
			}
			if opts.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), matchOutput{DocumentID: id, Status: status, Terms: terms})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "{ document_id = %d, status = %s, words = [%s] }\n",
				id, status, strings.Join(terms, " "))
			return err
		},
	}
}
