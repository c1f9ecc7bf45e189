package analytics

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

// Publisher ships event batches; *kafka.Producer implements it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Collector records every event in the Aggregator synchronously and, when a
// Publisher is configured, forwards it in batches from a background loop.
// Publishing runs behind a circuit breaker; batches that cannot be published
// are dropped and counted.
type Collector struct {
	agg       *Aggregator
	publisher Publisher
	breaker   *resilience.CircuitBreaker
	eventCh   chan kafka.Event
	cfg       CollectorConfig
	dropped   atomic.Int64
	logger    *slog.Logger
	done      chan struct{}
}

// NewCollector creates a collector. publisher may be nil.
func NewCollector(agg *Aggregator, publisher Publisher, cfg CollectorConfig) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	return &Collector{
		agg:       agg,
		publisher: publisher,
		breaker:   resilience.NewCircuitBreaker("analytics-publish", resilience.CircuitBreakerConfig{}),
		eventCh:   make(chan kafka.Event, cfg.BufferSize),
		cfg:       cfg,
		logger:    slog.Default().With("component", "analytics-collector"),
		done:      make(chan struct{}),
	}
}

// Start launches the publish loop, which runs until ctx is cancelled and
// then flushes what is buffered.
func (c *Collector) Start(ctx context.Context) {
	if c.publisher == nil {
		close(c.done)
		return
	}
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", c.cfg.BufferSize,
		"batch_size", c.cfg.BatchSize,
		"flush_interval", c.cfg.FlushInterval,
	)
}

func (c *Collector) TrackSearch(event SearchEvent) {
	c.agg.RecordSearch(event)
	c.enqueue(kafka.Event{Key: event.key(), Value: event})
}

func (c *Collector) TrackIndex(event IndexEvent) {
	c.agg.RecordIndex(event)
	c.enqueue(kafka.Event{Key: event.key(), Value: event})
}

// Stats adds the publishing side's health to the aggregated counters.
func (c *Collector) Stats() AggregatedStats {
	stats := c.agg.Stats()
	stats.DroppedEvents = c.dropped.Load()
	if c.publisher != nil {
		stats.PublisherState = c.breaker.State().String()
	}
	return stats
}

// Dropped is the number of events that were never published.
func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

// Close waits for the publish loop to exit. Cancel the Start context first.
func (c *Collector) Close() {
	<-c.done
}

func (c *Collector) enqueue(ev kafka.Event) {
	if c.publisher == nil {
		return
	}
	select {
	case c.eventCh <- ev:
	default:
		c.dropped.Add(1)
		c.logger.Warn("analytics event dropped, buffer full")
	}
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.cfg.BatchSize)
	for {
		select {
		case ev := <-c.eventCh:
			batch = append(batch, ev)
			if len(batch) >= c.cfg.BatchSize {
				batch = c.flush(ctx, batch)
			}
		case <-ticker.C:
			batch = c.flush(ctx, batch)
		case <-ctx.Done():
			for drained := false; !drained; {
				select {
				case ev := <-c.eventCh:
					batch = append(batch, ev)
				default:
					drained = true
				}
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			c.flush(flushCtx, batch)
			cancel()
			return
		}
	}
}

// flush publishes batch and returns an empty slice to reuse.
func (c *Collector) flush(ctx context.Context, batch []kafka.Event) []kafka.Event {
	if len(batch) == 0 {
		return batch
	}
	err := c.breaker.Execute(func() error {
		return c.publisher.PublishBatch(ctx, batch)
	})
	if err != nil {
		c.dropped.Add(int64(len(batch)))
		c.logger.Error("analytics batch dropped", "events", len(batch), "error", err)
	} else {
		c.logger.Debug("analytics batch published", "events", len(batch))
	}
	return make([]kafka.Event, 0, c.cfg.BatchSize)
}
