// Package publisher sends documents to the document-ingest Kafka topic, where
// the search server's index consumer picks them up.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

type Publisher struct {
	producer  EventPublisher
	source    string
	batchSize int
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a Publisher that tags every event with source.
func New(producer EventPublisher, source string) *Publisher {
	return &Publisher{
		producer:  producer,
		source:    source,
		batchSize: 100,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    slog.Default().With("component", "publisher"),
	}
}

// Publish validates every document and then publishes them in batches, keyed
// by document id so all events for an id land on one partition. Nothing is
// published if any document is invalid. It returns the number published.
func (p *Publisher) Publish(ctx context.Context, docs []ingestion.Document) (int, error) {
	events := make([]kafka.Event, 0, len(docs))
	for i, doc := range docs {
		if err := validator.Struct(doc); err != nil {
			return 0, fmt.Errorf("document %d: %w", i, err)
		}
		events = append(events, kafka.Event{
			Key: strconv.Itoa(*doc.ID),
			Value: ingestion.IngestEvent{
				Document:   doc,
				Source:     p.source,
				IngestedAt: p.now(),
			},
		})
	}

	published := 0
	for start := 0; start < len(events); start += p.batchSize {
		end := min(start+p.batchSize, len(events))
		if err := p.producer.PublishBatch(ctx, events[start:end]); err != nil {
			return published, fmt.Errorf("publishing documents %d-%d: %w", start, end-1, err)
		}
		published = end
	}
	p.logger.Info("documents published", "count", published, "source", p.source)
	return published, nil
}
