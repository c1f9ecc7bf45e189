// Package analytics tracks search and indexing events: an in-process
// aggregator backs the stats endpoint, and a collector publishes the same
// events to Kafka in batches.
package analytics

import "time"

type EventType string

const (
	EventSearch       EventType = "search"
	EventZeroResult   EventType = "zero_result"
	EventInvalidQuery EventType = "invalid_query"
	EventMatch        EventType = "match"
	EventIndexDoc     EventType = "index_document"
)

type SearchEvent struct {
	Type       EventType `json:"type"`
	Query      string    `json:"query"`
	PlusTerms  []string  `json:"plus_terms,omitempty"`
	MinusTerms []string  `json:"minus_terms,omitempty"`
	Status     string    `json:"status,omitempty"`
	DocumentID *int      `json:"document_id,omitempty"`
	Returned   int       `json:"returned"`
	LatencyUs  int64     `json:"latency_us"`
	CacheHit   bool      `json:"cache_hit"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

type IndexEvent struct {
	Type       EventType `json:"type"`
	DocumentID int       `json:"document_id"`
	Status     string    `json:"status"`
	TermCount  int       `json:"term_count"`
	Rating     int       `json:"rating"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e SearchEvent) key() string { return string(e.Type) }

func (e IndexEvent) key() string { return string(e.Type) }
