// Package corpus reads a YAML corpus file: a stop-word list plus documents.
//
//	stopWords: [and, in, on, the]
//	documents:
//	  - id: 2
//	    text: white cat and fashion collar
//	    status: ACTUAL
//	    ratings: [8, -3]
package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"gopkg.in/yaml.v3"
)

type Corpus struct {
	StopWords []string             `yaml:"stopWords"`
	Documents []ingestion.Document `yaml:"documents"`
}

// Engine is what a corpus is loaded into.
type Engine interface {
	ingestion.Indexer
	SetStopWords(words ...string) error
}

func LoadFile(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a corpus, rejecting unknown keys.
func Parse(data []byte) (*Corpus, error) {
	var c Corpus
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing corpus: %w", err)
	}
	return &c, nil
}

// Apply installs the stop words, then adds every document. Invalid
// documents are skipped and counted; invalid stop words abort before any
// document is added.
func (c *Corpus) Apply(e Engine, defaultStatus index.Status) (ingestion.LoadResult, error) {
	logger := slog.Default().With("component", "corpus")
	if len(c.StopWords) > 0 {
		if err := e.SetStopWords(c.StopWords...); err != nil {
			return ingestion.LoadResult{}, fmt.Errorf("corpus stop words: %w", err)
		}
	}
	res := ingestion.ApplyAll(e, c.Documents, defaultStatus, logger)
	logger.Info("corpus loaded",
		"stop_words", len(c.StopWords),
		"loaded", res.Loaded,
		"rejected", res.Rejected,
	)
	return res, nil
}
