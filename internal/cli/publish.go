package cli

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/spf13/cobra"
)

func newPublishCmd(opts *options) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Send the corpus documents to the document-ingest Kafka topic",
		Long: `Publishes every corpus document as an ingest event for running search
servers to index. The corpus stop words are not published; configure them
on the servers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			c, _, err := opts.loadCorpus()
			if err != nil {
				return err
			}
			producer, closer := opts.newPublisher(cfg)
			defer closer.Close()

			n, err := publisher.New(producer, "searchctl").Publish(cmd.Context(), c.Documents)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "published %d document(s) to %s\n", n, cfg.Kafka.Topics.DocumentIngest)
			return err
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Server config file with Kafka settings")
	return cmd
}
