package executor

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/tracing"
)

// Executor evaluates queries against an Engine's index. It holds the engine's
// read lock for the duration of each call.
type Executor struct {
	engine *indexer.Engine
	logger *slog.Logger
}

func New(engine *indexer.Engine) *Executor {
	return &Executor{
		engine: engine,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// ParseQuery parses raw with the engine's tokenizer and current stop words.
func (e *Executor) ParseQuery(raw string) (*parser.Query, error) {
	var (
		q   *parser.Query
		err error
	)
	e.engine.View(func(_ *index.MemoryIndex, stop tokenizer.StopWords) {
		q, err = parser.ParseTerms(raw, e.engine.Split(raw), stop)
	})
	return q, err
}

// FindTopDocuments returns at most ranker.MaxResultDocumentCount documents
// matching raw whose plus-term contributions pass pred.
func (e *Executor) FindTopDocuments(raw string, pred ranker.Predicate) ([]ranker.ScoredDoc, error) {
	_, ranked, err := e.Search(context.Background(), raw, pred)
	return ranked, err
}

// Search parses and ranks raw under a single read lock, so the stop words
// used for parsing and the documents ranked belong to the same index state.
// When ctx carries a span, parse and evaluate spans are recorded under it.
func (e *Executor) Search(ctx context.Context, raw string, pred ranker.Predicate) (*parser.Query, []ranker.ScoredDoc, error) {
	var (
		q      *parser.Query
		ranked []ranker.ScoredDoc
		err    error
	)
	e.engine.View(func(idx *index.MemoryIndex, stop tokenizer.StopWords) {
		_, parseSpan := tracing.StartChildSpan(ctx, "parse")
		q, err = parser.ParseTerms(raw, e.engine.Split(raw), stop)
		parseSpan.End()
		if err != nil {
			return
		}
		_, evalSpan := tracing.StartChildSpan(ctx, "evaluate")
		ranked = rank(idx, q, pred)
		evalSpan.SetAttr("results", len(ranked))
		evalSpan.End()
	})
	if err != nil {
		return nil, nil, err
	}
	e.logExecuted(q, ranked)
	return q, ranked, nil
}

func (e *Executor) FindTopDocumentsByStatus(raw string, status index.Status) ([]ranker.ScoredDoc, error) {
	return e.FindTopDocuments(raw, ranker.ByStatus(status))
}

// FindTopDocumentsDefault searches ACTUAL documents only.
func (e *Executor) FindTopDocumentsDefault(raw string) ([]ranker.ScoredDoc, error) {
	return e.FindTopDocumentsByStatus(raw, index.StatusActual)
}

// Evaluate ranks an already parsed query against the current index.
func (e *Executor) Evaluate(q *parser.Query, pred ranker.Predicate) []ranker.ScoredDoc {
	var ranked []ranker.ScoredDoc
	e.engine.View(func(idx *index.MemoryIndex, _ tokenizer.StopWords) {
		ranked = rank(idx, q, pred)
	})
	e.logExecuted(q, ranked)
	return ranked
}

// rank must run under the engine's read lock.
func rank(idx *index.MemoryIndex, q *parser.Query, pred ranker.Predicate) []ranker.ScoredDoc {
	if q.Empty() {
		return []ranker.ScoredDoc{}
	}
	plus := make([]ranker.TermPostings, 0, len(q.PlusTerms))
	for _, term := range q.PlusTerms {
		if postings := idx.Postings(term); len(postings) > 0 {
			plus = append(plus, ranker.TermPostings{Term: term, Postings: postings})
		}
	}
	excluded := make([]index.PostingList, 0, len(q.MinusTerms))
	for _, term := range q.MinusTerms {
		if postings := idx.Postings(term); len(postings) > 0 {
			excluded = append(excluded, postings)
		}
	}
	getDocInfo := func(docID int) ranker.DocInfo {
		doc, _ := idx.Document(docID)
		return ranker.DocInfo{Status: doc.Status, Rating: doc.Rating}
	}
	return ranker.Rank(plus, excluded,
		ranker.RankParams{TotalDocs: idx.DocCount()},
		getDocInfo, pred, ranker.MaxResultDocumentCount)
}

func (e *Executor) logExecuted(q *parser.Query, ranked []ranker.ScoredDoc) {
	e.logger.Debug("query executed",
		"query", q.RawQuery,
		"plus_terms", q.PlusTerms,
		"minus_terms", q.MinusTerms,
		"results", len(ranked),
	)
}

// MatchDocument lists, in lexicographic order, the plus terms of raw that
// occur in document id. The list is empty when any minus term occurs in it.
func (e *Executor) MatchDocument(raw string, id int) ([]string, index.Status, error) {
	var (
		matched []string
		status  index.Status
		found   bool
		err     error
	)
	e.engine.View(func(idx *index.MemoryIndex, stop tokenizer.StopWords) {
		var q *parser.Query
		q, err = parser.ParseTerms(raw, e.engine.Split(raw), stop)
		if err != nil {
			return
		}
		doc, ok := idx.Document(id)
		if !ok {
			return
		}
		found = true
		status = doc.Status
		matched = []string{}
		for _, term := range q.MinusTerms {
			if _, hit := idx.TermFreq(term, id); hit {
				return
			}
		}
		for _, term := range q.PlusTerms {
			if _, hit := idx.TermFreq(term, id); hit {
				matched = append(matched, term)
			}
		}
	})
	if err != nil {
		return nil, 0, err
	}
	if !found {
		return nil, 0, apperrors.Newf(apperrors.ErrDocumentNotFound, http.StatusNotFound, "document %d is not indexed", id)
	}
	return matched, status, nil
}
