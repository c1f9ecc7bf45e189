package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// StatsSource is satisfied by both *Collector and *Aggregator.
type StatsSource interface {
	Stats() AggregatedStats
}

type Handler struct {
	source StatsSource
	logger *slog.Logger
}

func NewHandler(source StatsSource) *Handler {
	return &Handler{
		source: source,
		logger:    slog.Default().With("component", "analytics-handler"),
	}
}

// Stats serves the aggregated counters as JSON.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.source.Stats()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
