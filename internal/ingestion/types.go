// Package ingestion defines the document payload shared by every ingest path
// (HTTP, Kafka, Postgres, YAML corpus) and applies payloads to the index.
package ingestion

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
)

// Document is one document to index. An empty Status means the configured
// default.
type Document struct {
	ID      *int   `json:"id" yaml:"id" validate:"required,gte=0"`
	Text    string `json:"text" yaml:"text" validate:"required,max=1048576"`
	Status  string `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,docstatus"`
	Ratings []int  `json:"ratings" yaml:"ratings"`
}

// IngestEvent is the payload of the document-ingest Kafka topic.
type IngestEvent struct {
	Document
	Source     string    `json:"source,omitempty"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Indexer is the write side of the search engine.
type Indexer interface {
	AddDocument(id int, text string, status index.Status, ratings []int) error
}

// Apply validates doc and adds it to idx, using defaultStatus when doc names
// none.
func Apply(idx Indexer, doc Document, defaultStatus index.Status) error {
	if err := validator.Struct(doc); err != nil {
		return err
	}
	status := defaultStatus
	if doc.Status != "" {
		parsed, err := index.ParseStatus(doc.Status)
		if err != nil {
			return err
		}
		status = parsed
	}
	return idx.AddDocument(*doc.ID, doc.Text, status, doc.Ratings)
}

// IntPtr returns a pointer to id, for building Documents in code.
func IntPtr(id int) *int {
	return &id
}
