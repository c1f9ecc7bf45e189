// Package cli implements searchctl, a command-line front end that loads a
// YAML corpus into an in-process index and queries it.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/corpus"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

type options struct {
	corpusPath    string
	format        string
	defaultStatus string
	delimiters    string
	logLevel      string

	// newPublisher opens the ingest-topic producer; tests replace it.
	newPublisher func(cfg *config.Config) (publisher.EventPublisher, io.Closer)
}

// NewRootCmd builds the searchctl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{
		newPublisher: func(cfg *config.Config) (publisher.EventPublisher, io.Closer) {
			p := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
			return p, p
		},
	})
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "searchctl",
		Short:         "Query a document corpus with the TF-IDF search engine",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(logger.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
			switch opts.format {
			case formatText, formatJSON:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want text or json)", opts.format)
			}
		},
	}
	root.PersistentFlags().StringVarP(&opts.corpusPath, "corpus", "c", "", "YAML corpus file")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", formatText, "Output format (text|json)")
	root.PersistentFlags().StringVar(&opts.defaultStatus, "default-status", "ACTUAL", "Status for corpus documents that name none")
	root.PersistentFlags().StringVar(&opts.delimiters, "delimiters", "", "Word delimiter characters (default: space)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")

	root.AddCommand(
		newSearchCmd(opts),
		newMatchCmd(opts),
		newDocsCmd(opts),
		newPublishCmd(opts),
	)
	return root
}

// Execute runs searchctl with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *options) loadCorpus() (*corpus.Corpus, index.Status, error) {
	if o.corpusPath == "" {
		return nil, 0, fmt.Errorf("--corpus is required")
	}
	status, err := index.ParseStatus(o.defaultStatus)
	if err != nil {
		return nil, 0, err
	}
	c, err := corpus.LoadFile(o.corpusPath)
	if err != nil {
		return nil, 0, err
	}
	return c, status, nil
}

// loadEngine indexes the corpus. Invalid documents are skipped and reported
// on stderr.
func (o *options) loadEngine(cmd *cobra.Command) (*indexer.Engine, error) {
	c, status, err := o.loadCorpus()
	if err != nil {
		return nil, err
	}
	var engineOpts []indexer.Option
	if o.delimiters != "" {
		engineOpts = append(engineOpts, indexer.WithDelimiters(o.delimiters))
	}
	engine := indexer.NewEngine(engineOpts...)
	res, err := c.Apply(engine, status)
	if err != nil {
		return nil, err
	}
	if res.Rejected > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d invalid document(s)\n", res.Rejected)
	}
	return engine, nil
}
