package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/tracing"
)

const maxBodyBytes = 2 << 20

// Handler serves the document and search API. cache, collector and metrics
// are optional.
type Handler struct {
	engine        *indexer.Engine
	executor      *executor.Executor
	cache         *cache.QueryCache
	collector     *analytics.Collector
	metrics       *metrics.Metrics
	defaultStatus index.Status
	logger        *slog.Logger
}

func New(
	engine *indexer.Engine,
	exec *executor.Executor,
	queryCache *cache.QueryCache,
	collector *analytics.Collector,
	m *metrics.Metrics,
	defaultStatus index.Status,
) *Handler {
	return &Handler{
		engine:        engine,
		executor:      exec,
		cache:         queryCache,
		collector:     collector,
		metrics:       m,
		defaultStatus: defaultStatus,
		logger:        slog.Default().With("component", "search-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/documents", h.AddDocument)
	mux.HandleFunc("GET /api/v1/documents", h.DocumentID)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.Document)
	mux.HandleFunc("GET /api/v1/documents/{id}/match", h.Match)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	if h.collector != nil {
		mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(h.collector).Stats)
	}
}

func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var doc ingestion.Document
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		h.writeError(w, r, apperrors.InvalidArgumentf("malformed request body: %v", err))
		return
	}
	if err := ingestion.Apply(h.engine, doc, h.defaultStatus); err != nil {
		h.writeError(w, r, err)
		return
	}
	stored, err := h.engine.Document(*doc.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("document added", "doc_id", stored.ID, "status", stored.Status)
	h.writeJSON(w, http.StatusCreated, stored)
}

// DocumentID resolves ?ordinal=N to the id of the N-th inserted document.
func (h *Handler) DocumentID(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ordinal")
	if raw == "" {
		h.writeJSON(w, http.StatusOK, map[string]int{"document_count": h.engine.DocumentCount()})
		return
	}
	ordinal, err := strconv.Atoi(raw)
	if err != nil {
		h.writeError(w, r, apperrors.InvalidArgumentf("ordinal must be an integer, got %q", raw))
		return
	}
	id, err := h.engine.DocumentID(ordinal)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"ordinal": ordinal, "id": id})
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	doc, err := h.engine.Document(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

type matchResponse struct {
	DocumentID int          `json:"document_id"`
	Terms      []string     `json:"terms"`
	Status     index.Status `json:"status"`
}

func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	query := r.URL.Query().Get("q")

	id, err := pathID(r)
	if err == nil && query == "" {
		err = apperrors.InvalidArgumentf("query parameter 'q' is required")
	}
	var (
		terms  []string
		status index.Status
	)
	if err == nil {
		terms, status, err = h.executor.MatchDocument(query, id)
	}
	if err != nil {
		h.countMatch("error")
		h.writeError(w, r, err)
		return
	}
	if len(terms) > 0 {
		h.countMatch("matched")
	} else {
		h.countMatch("empty")
	}
	h.track(analytics.SearchEvent{
		Type:       analytics.EventMatch,
		Query:      query,
		DocumentID: &id,
		Returned:   len(terms),
		LatencyUs:  time.Since(start).Microseconds(),
		Timestamp:  time.Now().UTC(),
		RequestID:  middleware.GetRequestID(ctx),
	})
	h.writeJSON(w, http.StatusOK, matchResponse{DocumentID: id, Terms: terms, Status: status})
}

type searchResponse struct {
	Query    string             `json:"query"`
	Status   index.Status       `json:"status"`
	Results  []ranker.ScoredDoc `json:"results"`
	CacheHit bool               `json:"cache_hit"`
}

// Search ranks documents with the requested status (default: the configured
// default status). min_rating narrows the result further and bypasses the
// cache.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)
	params := r.URL.Query()

	query := params.Get("q")
	if query == "" {
		h.writeError(w, r, apperrors.InvalidArgumentf("query parameter 'q' is required"))
		return
	}
	status := h.defaultStatus
	if raw := params.Get("status"); raw != "" {
		parsed, err := index.ParseStatus(raw)
		if err != nil {
			h.writeError(w, r, apperrors.InvalidArgumentf("%v", err))
			return
		}
		status = parsed
	}
	pred := ranker.ByStatus(status)
	filtered := false
	if raw := params.Get("min_rating"); raw != "" {
		minRating, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, apperrors.InvalidArgumentf("min_rating must be an integer, got %q", raw))
			return
		}
		pred = ranker.All(pred, ranker.MinRating(minRating))
		filtered = true
	}

	ctx, root := tracing.StartSpan(ctx, "search", middleware.GetRequestID(ctx))
	defer root.Log(log)
	defer root.End()

	var (
		q           *parser.Query
		results     []ranker.ScoredDoc
		cacheHit    bool
		cacheStatus = "bypass"
		err         error
	)
	if h.cache != nil && !filtered {
		// The key needs the parsed terms; a miss re-parses and ranks under one
		// read lock. Stop words only grow, so a result stored under an older
		// parse is either identical or unreachable by later parses.
		_, parseSpan := tracing.StartChildSpan(ctx, "parse")
		q, err = h.executor.ParseQuery(query)
		parseSpan.End()
		if err == nil {
			results = []ranker.ScoredDoc{}
			if !q.Empty() {
				evalCtx, evalSpan := tracing.StartChildSpan(ctx, "evaluate")
				results, cacheHit = h.cache.GetOrCompute(ctx, q, status, func() []ranker.ScoredDoc {
					_, docs, _ := h.executor.Search(evalCtx, query, pred)
					return docs
				})
				cacheStatus = "miss"
				if cacheHit {
					cacheStatus = "hit"
				}
				evalSpan.SetAttr("cache", cacheStatus)
				evalSpan.End()
			}
		}
	} else {
		q, results, err = h.executor.Search(ctx, query, pred)
	}
	if err != nil {
		root.SetAttr("error", err.Error())
		h.countSearch("invalid")
		h.track(analytics.SearchEvent{
			Type:      analytics.EventInvalidQuery,
			Query:     query,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
		h.writeError(w, r, err)
		return
	}
	root.SetAttr("results", len(results))

	elapsed := time.Since(start)
	if h.metrics != nil {
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
		h.metrics.SearchResultsCount.Observe(float64(len(results)))
	}
	eventType := analytics.EventSearch
	if len(results) == 0 {
		eventType = analytics.EventZeroResult
		h.countSearch("zero_result")
	} else {
		h.countSearch("hit")
	}
	h.track(analytics.SearchEvent{
		Type:       eventType,
		Query:      query,
		PlusTerms:  q.PlusTerms,
		MinusTerms: q.MinusTerms,
		Status:     status.String(),
		Returned:   len(results),
		LatencyUs:  elapsed.Microseconds(),
		CacheHit:   cacheHit,
		Timestamp:  time.Now().UTC(),
		RequestID:  middleware.GetRequestID(ctx),
	})

	log.Info("search completed",
		"query", query,
		"status", status,
		"returned", len(results),
		"cache", cacheStatus,
		"latency_us", elapsed.Microseconds(),
	)
	h.writeJSON(w, http.StatusOK, searchResponse{
		Query:    query,
		Status:   status,
		Results:  results,
		CacheHit: cacheHit,
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	var termCount int
	h.engine.View(func(idx *index.MemoryIndex, _ tokenizer.StopWords) {
		termCount = idx.TermCount()
	})
	resp := map[string]any{
		"document_count": h.engine.DocumentCount(),
		"term_count":     termCount,
		"cache_enabled":  h.cache != nil,
	}
	if h.cache != nil {
		hits, misses := h.cache.Stats()
		resp["cache_hits"] = hits
		resp["cache_misses"] = misses
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func pathID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidArgumentf("document id must be an integer, got %q", raw)
	}
	return id, nil
}

func (h *Handler) countSearch(resultType string) {
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
}

func (h *Handler) countMatch(outcome string) {
	if h.metrics != nil {
		h.metrics.MatchRequestsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) track(event analytics.SearchEvent) {
	if h.collector != nil {
		h.collector.TrackSearch(event)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to its HTTP status. Internal errors are logged and
// reported without detail.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		message = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
