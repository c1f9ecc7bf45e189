package analytics

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

// HandleEvent returns a Kafka handler that feeds published search and index
// events into agg. Events that cannot be decoded, or carry an unknown type,
// are logged and acknowledged.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	logger := slog.Default().With("component", "analytics-consumer")
	return func(_ context.Context, key, value []byte) error {
		head, err := kafka.DecodeJSON[struct {
			Type EventType `json:"type"`
		}](value)
		if err != nil {
			logger.Warn("skipping undecodable event", "key", string(key), "error", err)
			return nil
		}
		switch head.Type {
		case EventIndexDoc:
			event, err := kafka.DecodeJSON[IndexEvent](value)
			if err != nil {
				logger.Warn("skipping malformed index event", "error", err)
				return nil
			}
			agg.RecordIndex(event)
		case EventSearch, EventZeroResult, EventInvalidQuery, EventMatch:
			event, err := kafka.DecodeJSON[SearchEvent](value)
			if err != nil {
				logger.Warn("skipping malformed search event", "error", err)
				return nil
			}
			agg.RecordSearch(event)
		default:
			logger.Warn("skipping event of unknown type", "type", head.Type)
		}
		return nil
	}
}
