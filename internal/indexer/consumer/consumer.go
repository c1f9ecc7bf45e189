// Package consumer indexes documents arriving on the document-ingest Kafka
// topic.
package consumer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

// IndexConsumer drives a Kafka consumer whose handler is HandleMessage.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

func (ic *IndexConsumer) Close() error {
	return ic.consumer.Close()
}

// HandleMessage decodes an IngestEvent and adds its document to idx.
// Undecodable or invalid events are logged and acknowledged, since
// redelivering them cannot succeed. Any other error is returned, so the
// consumer retries the message and then stops.
func HandleMessage(idx ingestion.Indexer, defaultStatus index.Status) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event", "key", string(key), "error", err)
			return nil
		}
		if err := ingestion.Apply(idx, event.Document, defaultStatus); err != nil {
			if errors.Is(err, apperrors.ErrInvalidArgument) {
				logger.Warn("ingest event rejected",
					"key", string(key),
					"source", event.Source,
					"error", err,
				)
				return nil
			}
			return err
		}
		logger.Debug("document indexed from kafka", "doc_id", *event.ID, "source", event.Source)
		return nil
	}
}
