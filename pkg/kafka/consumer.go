// Package kafka wraps segmentio/kafka-go. The producer publishes JSON events;
// the consumer hands each message to a MessageHandler and commits it once
// the handler succeeds. A message the handler keeps failing stops the
// consumer, so its offset is never committed past.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one message. A returned error is retried; when
// the retries run out the consumer stops with the message uncommitted, and
// it is delivered again to the next reader of the group. Return nil for
// messages that can never succeed.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader  messageReader
	logger  *slog.Logger
	handler MessageHandler
	retry   resilience.RetryConfig
}

// NewConsumer joins cfg.ConsumerGroup on topic and resumes from the group's
// committed offset.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	return newConsumer(kafka.NewReader(readerConfig(cfg, topic, cfg.ConsumerGroup)), topic, handler)
}

// NewReplayConsumer reads topic from its first offset on every start. It joins
// a group unique to this process, so it is assigned every partition and no
// earlier commit applies. Use it to rebuild in-memory state from the topic.
func NewReplayConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	return newConsumer(kafka.NewReader(replayReaderConfig(cfg, topic)), topic, handler)
}

func readerConfig(cfg config.KafkaConfig, topic, groupID string) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	}
}

// replayReaderConfig uses a fresh group id; StartOffset only applies to a
// group without committed offsets.
func replayReaderConfig(cfg config.KafkaConfig, topic string) kafka.ReaderConfig {
	return readerConfig(cfg, topic, cfg.ConsumerGroup+"-"+uuid.NewString())
}

func newConsumer(r messageReader, topic string, handler MessageHandler) *Consumer {
	return &Consumer{
		reader:  r,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
		handler: handler,
		retry:   resilience.RetryConfig{MaxAttempts: 5, InitialDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second},
	}
}

// Start fetches and processes messages one at a time until ctx is cancelled
// or the reader is closed. It returns an error when a message still fails
// after retrying.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.logger.Info("consumer stopping", "reason", err)
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}
		c.logger.Debug("message received",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"value_size", len(msg.Value),
		)
		err = resilience.Retry(ctx, "handle-message", c.retry, func() error {
			return c.handler(ctx, msg.Key, msg.Value)
		})
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("giving up on message, consumer stopping",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			return fmt.Errorf("handling message at partition %d offset %d: %w", msg.Partition, msg.Offset, err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
