package analytics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	err     error
}

func (p *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, append([]kafka.Event(nil), events...))
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator()
	agg.RecordSearch(SearchEvent{Type: EventSearch, Query: "cat", Returned: 2, LatencyUs: 10})
	agg.RecordSearch(SearchEvent{Type: EventSearch, Query: "cat", Returned: 2, LatencyUs: 30, CacheHit: true})
	agg.RecordSearch(SearchEvent{Type: EventZeroResult, Query: "starling", LatencyUs: 20})
	agg.RecordSearch(SearchEvent{Type: EventInvalidQuery, Query: "cat -"})
	agg.RecordSearch(SearchEvent{Type: EventMatch, Query: "cat"})
	agg.RecordIndex(IndexEvent{Type: EventIndexDoc, DocumentID: 1})

	stats := agg.Stats()
	assert.Equal(t, int64(3), stats.TotalSearches)
	assert.Equal(t, int64(1), stats.TotalMatches)
	assert.Equal(t, int64(1), stats.InvalidQueries)
	assert.Equal(t, int64(1), stats.TotalDocsIndexed)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(2), stats.CacheMisses)
	assert.Equal(t, int64(1), stats.ZeroResultCount)
	assert.InDelta(t, 20.0, stats.AvgLatencyUs, 1e-9)
	assert.Equal(t, int64(20), stats.P50LatencyUs)
	assert.Equal(t, int64(30), stats.P99LatencyUs)
	assert.Equal(t, []QueryCount{{"cat", 2}, {"starling", 1}}, stats.TopQueries)
	assert.Equal(t, []QueryCount{{"starling", 1}}, stats.ZeroResultQueries)
}

func TestAggregatorLatencyWindow(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < maxLatencySamples+5; i++ {
		agg.RecordSearch(SearchEvent{Type: EventSearch, Query: "q", Returned: 1, LatencyUs: int64(i)})
	}
	assert.Len(t, agg.latencies, maxLatencySamples)
	assert.Equal(t, int64(maxLatencySamples+5), agg.Stats().TotalSearches)
}

func TestCollectorPublishesBatches(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(NewAggregator(), pub, CollectorConfig{BatchSize: 2, FlushInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	c.TrackSearch(SearchEvent{Type: EventSearch, Query: "cat", Returned: 1})
	c.TrackSearch(SearchEvent{Type: EventSearch, Query: "dog", Returned: 1})
	c.TrackIndex(IndexEvent{Type: EventIndexDoc, DocumentID: 3})

	require.Eventually(t, func() bool { return pub.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	c.Close()

	assert.Equal(t, 3, pub.count())
	assert.Equal(t, "search", pub.batches[0][0].Key)
	assert.Equal(t, int64(2), c.Stats().TotalSearches)
	assert.Equal(t, int64(0), c.Dropped())
}

func TestCollectorDropsFailedBatches(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	c := NewCollector(NewAggregator(), pub, CollectorConfig{BatchSize: 1, FlushInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	c.TrackSearch(SearchEvent{Type: EventSearch, Query: "cat"})
	require.Eventually(t, func() bool { return c.Dropped() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	c.Close()
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.TotalSearches)
	assert.Equal(t, int64(1), stats.DroppedEvents)
	assert.Equal(t, "closed", stats.PublisherState)
}

func TestCollectorWithoutPublisher(t *testing.T) {
	c := NewCollector(NewAggregator(), nil, CollectorConfig{})
	c.Start(context.Background())
	c.TrackSearch(SearchEvent{Type: EventSearch, Query: "cat"})
	c.Close()
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.TotalSearches)
	assert.Empty(t, stats.PublisherState)
}

func TestHandlerStats(t *testing.T) {
	c := NewCollector(NewAggregator(), nil, CollectorConfig{})
	c.TrackSearch(SearchEvent{Type: EventSearch, Query: "cat", Returned: 1})

	rec := httptest.NewRecorder()
	NewHandler(c).Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_searches":1`)
}

func TestHandleEvent(t *testing.T) {
	agg := NewAggregator()
	handle := HandleEvent(agg)
	ctx := context.Background()

	require.NoError(t, handle(ctx, []byte("search"), []byte(`{"type":"search","query":"cat","returned":2,"latency_us":40}`)))
	require.NoError(t, handle(ctx, []byte("zero_result"), []byte(`{"type":"zero_result","query":"dog","returned":0}`)))
	require.NoError(t, handle(ctx, []byte("match"), []byte(`{"type":"match","query":"cat","document_id":3}`)))
	require.NoError(t, handle(ctx, []byte("index_document"), []byte(`{"type":"index_document","document_id":3,"status":"ACTUAL"}`)))

	// Bad payloads are acknowledged without touching the counters.
	require.NoError(t, handle(ctx, nil, []byte(`not json`)))
	require.NoError(t, handle(ctx, nil, []byte(`{"type":"reindex"}`)))
	require.NoError(t, handle(ctx, nil, []byte(`{"type":"search","returned":"many"}`)))

	stats := agg.Stats()
	assert.Equal(t, int64(2), stats.TotalSearches)
	assert.Equal(t, int64(1), stats.ZeroResultCount)
	assert.Equal(t, int64(1), stats.TotalMatches)
	assert.Equal(t, int64(1), stats.TotalDocsIndexed)
	require.Len(t, stats.ZeroResultQueries, 1)
	assert.Equal(t, "dog", stats.ZeroResultQueries[0].Query)
}

func TestHandlerServesAggregator(t *testing.T) {
	agg := NewAggregator()
	agg.RecordIndex(IndexEvent{Type: EventIndexDoc, DocumentID: 1})

	rec := httptest.NewRecorder()
	NewHandler(agg).Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_docs_indexed":1`)
}
