package indexer

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

// Engine owns the inverted index and the stop-word set. Writers are
// serialized with a mutex; readers share it through View.
type Engine struct {
	mu        sync.RWMutex
	memIndex  *index.MemoryIndex
	stopWords tokenizer.StopWords
	split     func(string) []string
	metrics   *metrics.Metrics
	logger    *slog.Logger

	listenersMu sync.RWMutex
	listeners   []func(index.Document)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMetrics records indexing counters and index gauges on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithDelimiters replaces the tokenizer's default delimiter set.
func WithDelimiters(delims string) Option {
	return func(e *Engine) { e.split = tokenizer.SplitFunc(delims) }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		memIndex:  index.NewMemoryIndex(),
		stopWords: tokenizer.StopWords{},
		split:     tokenizer.Split,
		logger:    slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetStopWords adds words to the stop-word set. Stop words only affect
// documents added afterwards. If any word is invalid none are added.
func (e *Engine) SetStopWords(words ...string) error {
	sw, err := tokenizer.NewStopWords(words...)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.stopWords = e.stopWords.Merge(sw)
	e.mu.Unlock()
	e.logger.Debug("stop words configured", "count", len(sw))
	return nil
}

// SetStopWordsText splits text with the engine's tokenizer and adds the
// resulting words as stop words.
func (e *Engine) SetStopWordsText(text string) error {
	return e.SetStopWords(e.split(text)...)
}

func (e *Engine) StopWords() tokenizer.StopWords {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stopWords.Merge(nil)
}

// AddDocument tokenizes text, drops stop words and indexes the remaining
// terms under id. It fails with ErrInvalidArgument for a negative or
// duplicate id, a status outside the known set, text without terms, or a
// malformed term; in every failure case the index is left unchanged.
func (e *Engine) AddDocument(id int, text string, status index.Status, ratings []int) error {
	if err := e.addDocument(id, text, status, ratings); err != nil {
		e.recordRejection(err)
		e.logger.Debug("document rejected", "doc_id", id, "error", err)
		return err
	}
	return nil
}

func (e *Engine) addDocument(id int, text string, status index.Status, ratings []int) error {
	if !status.Valid() {
		return apperrors.InvalidArgumentf("document %d has unknown status %d", id, int(status))
	}
	words := e.split(text)
	if len(words) == 0 {
		return apperrors.InvalidArgumentf("document %d has no terms", id)
	}
	for _, w := range words {
		if !tokenizer.IsValidWord(w) {
			return apperrors.InvalidArgumentf("document %d contains invalid term %q", id, w)
		}
	}

	e.mu.Lock()
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if !e.stopWords.Contains(w) {
			terms = append(terms, w)
		}
	}
	if err := e.memIndex.AddDocument(id, terms, status, ratings); err != nil {
		e.mu.Unlock()
		return err
	}
	doc, _ := e.memIndex.Document(id)
	docCount, termCount, size := e.memIndex.DocCount(), e.memIndex.TermCount(), e.memIndex.Size()
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
		e.metrics.IndexDocuments.Set(float64(docCount))
		e.metrics.IndexTerms.Set(float64(termCount))
		e.metrics.IndexSizeBytes.Set(float64(size))
	}
	e.logger.Debug("document indexed",
		"doc_id", id,
		"status", status,
		"term_count", len(terms),
		"rating", doc.Rating,
	)
	e.notify(doc)
	return nil
}

func (e *Engine) recordRejection(err error) {
	if e.metrics == nil {
		return
	}
	reason := "invalid_argument"
	if errors.Is(err, apperrors.ErrDocumentExists) {
		reason = "duplicate_id"
	}
	e.metrics.DocsRejectedTotal.WithLabelValues(reason).Inc()
}

// OnIndexed registers fn to be called after every successful AddDocument,
// outside the engine's lock.
func (e *Engine) OnIndexed(fn func(index.Document)) {
	e.listenersMu.Lock()
	e.listeners = append(e.listeners, fn)
	e.listenersMu.Unlock()
}

func (e *Engine) notify(doc index.Document) {
	e.listenersMu.RLock()
	listeners := make([]func(index.Document), len(e.listeners))
	copy(listeners, e.listeners)
	e.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(doc)
	}
}

func (e *Engine) DocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.memIndex.DocCount()
}

// DocumentID returns the id of the document inserted at position ordinal,
// failing with ErrOutOfRange outside [0, DocumentCount()).
func (e *Engine) DocumentID(ordinal int) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.memIndex.DocumentID(ordinal)
}

func (e *Engine) Document(id int) (index.Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	doc, ok := e.memIndex.Document(id)
	if !ok {
		return index.Document{}, apperrors.Newf(apperrors.ErrDocumentNotFound, http.StatusNotFound, "document %d is not indexed", id)
	}
	doc.Terms = slices.Clone(doc.Terms)
	return doc, nil
}

// Snapshot returns the whole term table ordered by term.
func (e *Engine) Snapshot() []index.TermEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.memIndex.Snapshot()
}

// View runs fn with read access to the index and the stop-word set. fn must
// not retain either after it returns.
func (e *Engine) View(fn func(idx *index.MemoryIndex, stop tokenizer.StopWords)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.memIndex, e.stopWords)
}

// Split tokenizes text with the engine's delimiter set.
func (e *Engine) Split(text string) []string {
	return e.split(text)
}
