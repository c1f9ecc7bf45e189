package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"text/tabwriter"
	"time"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Queries     []string
	Statuses    []string
	Seed        int
}

type Stats struct {
	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
	cacheHits     atomic.Int64
	emptyResults  atomic.Int64
	latencies     []time.Duration
	latenciesMu   sync.Mutex
	statusCodes   map[int]*atomic.Int64
	statusCodesMu sync.Mutex
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]*atomic.Int64),
	}
}

func (s *Stats) RecordRequest(duration time.Duration, statusCode int, err error) {
	s.totalRequests.Add(1)

	if err != nil {
		s.errorCount.Add(1)
		return
	}

	if statusCode >= 200 && statusCode < 300 {
		s.successCount.Add(1)
	} else {
		s.errorCount.Add(1)
	}

	s.latenciesMu.Lock()
	s.latencies = append(s.latencies, duration)
	s.latenciesMu.Unlock()

	s.statusCodesMu.Lock()
	if _, ok := s.statusCodes[statusCode]; !ok {
		s.statusCodes[statusCode] = &atomic.Int64{}
	}
	s.statusCodes[statusCode].Add(1)
	s.statusCodesMu.Unlock()
}

type searchResponse struct {
	Results  []json.RawMessage `json:"results"`
	CacheHit bool              `json:"cache_hit"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search server")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	seed := flag.Int("seed", 0, "number of synthetic documents to add before the run")
	flag.Parse()

	queries := []string{
		"white cat",
		"fluffy cat -collar",
		"groomed dog",
		"expressive eyes -tail",
		"funny pet",
		"nasty rat -not",
		"pet with tail",
		"cat dog -rat",
		"starling evgeny",
		"well groomed -fluffy",
	}

	cfg := Config{
		BaseURL:     *baseURL,
		Concurrency: *concurrency,
		Duration:    *duration,
		Queries:     queries,
		Statuses:    []string{"ACTUAL", "ACTUAL", "ACTUAL", "BANNED", "IRRELEVANT"},
		Seed:        *seed,
	}

	fmt.Println("=== Search Server Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Queries:     %d unique\n", len(cfg.Queries))
	fmt.Println()

	client := newClient(cfg.Concurrency)
	if cfg.Seed > 0 {
		added, err := seedDocuments(client, cfg.BaseURL, cfg.Seed)
		fmt.Printf("Seeded:      %d documents\n", added)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seeding stopped: %v\n", err)
		}
		fmt.Println()
	}

	stats := runLoadTest(client, cfg)
	printReport(stats, cfg.Duration)
}

func newClient(concurrency int) *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

var seedWords = []string{
	"white", "cat", "dog", "fluffy", "tail", "groomed", "collar",
	"expressive", "eyes", "funny", "pet", "nasty", "rat", "starling",
}

// seedDocuments adds n documents with ids above any the demo corpus uses.
// Documents that already exist are skipped.
func seedDocuments(client *http.Client, baseURL string, n int) (int, error) {
	added := 0
	for i := 0; i < n; i++ {
		words := make([]string, 0, 6)
		for j := 0; j < 6; j++ {
			words = append(words, seedWords[(i*7+j*3)%len(seedWords)])
		}
		body, err := json.Marshal(map[string]any{
			"id":      100000 + i,
			"text":    strings.Join(words, " "),
			"status":  []string{"ACTUAL", "IRRELEVANT", "BANNED", "REMOVED"}[i%4],
			"ratings": []int{i % 10, (i * 3) % 7},
		})
		if err != nil {
			return added, err
		}
		resp, err := client.Post(baseURL+"/api/v1/documents", "application/json", bytes.NewReader(body))
		if err != nil {
			return added, err
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusCreated:
			added++
		case resp.StatusCode == http.StatusConflict:
		default:
			return added, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
	}
	return added, nil
}

func runLoadTest(client *http.Client, cfg Config) *Stats {
	stats := NewStats()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")

	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			queryIdx := workerID

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				query := cfg.Queries[queryIdx%len(cfg.Queries)]
				status := cfg.Statuses[queryIdx%len(cfg.Statuses)]
				queryIdx++

				searchURL := fmt.Sprintf("%s/api/v1/search?q=%s&status=%s",
					cfg.BaseURL, url.QueryEscape(query), status)

				start := time.Now()
				resp, err := client.Do(mustNewRequest(ctx, searchURL))
				duration := time.Since(start)

				if err != nil {
					if ctx.Err() != nil {
						return
					}
					stats.RecordRequest(duration, 0, err)
					continue
				}
				if resp.StatusCode == http.StatusOK {
					var sr searchResponse
					if json.NewDecoder(resp.Body).Decode(&sr) == nil {
						if sr.CacheHit {
							stats.cacheHits.Add(1)
						}
						if len(sr.Results) == 0 {
							stats.emptyResults.Add(1)
						}
					}
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()

				stats.RecordRequest(duration, resp.StatusCode, nil)
			}
		}(w)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func mustNewRequest(ctx context.Context, rawURL string) *http.Request {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		panic(fmt.Sprintf("creating request: %v", err))
	}
	return req
}

// report is a snapshot of Stats with latencies sorted for percentiles.
type report struct {
	total, success, failed int64
	cacheHits, empty       int64
	latencies              []time.Duration
	codes                  map[int]int64
}

func (s *Stats) snapshot() report {
	r := report{
		total:     s.totalRequests.Load(),
		success:   s.successCount.Load(),
		failed:    s.errorCount.Load(),
		cacheHits: s.cacheHits.Load(),
		empty:     s.emptyResults.Load(),
		codes:     make(map[int]int64),
	}
	s.latenciesMu.Lock()
	r.latencies = append([]time.Duration(nil), s.latencies...)
	s.latenciesMu.Unlock()
	sort.Slice(r.latencies, func(i, j int) bool { return r.latencies[i] < r.latencies[j] })

	s.statusCodesMu.Lock()
	for code, n := range s.statusCodes {
		r.codes[code] = n.Load()
	}
	s.statusCodesMu.Unlock()
	return r
}

func (r report) mean() (avg, stddev time.Duration) {
	if len(r.latencies) == 0 {
		return 0, 0
	}
	var sum float64
	for _, l := range r.latencies {
		sum += float64(l)
	}
	m := sum / float64(len(r.latencies))
	var sq float64
	for _, l := range r.latencies {
		sq += (float64(l) - m) * (float64(l) - m)
	}
	return time.Duration(m), time.Duration(math.Sqrt(sq / float64(len(r.latencies))))
}

func printReport(stats *Stats, duration time.Duration) {
	r := stats.snapshot()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:\t%d\n", r.total)
	fmt.Fprintf(w, "Successful:\t%d\n", r.success)
	fmt.Fprintf(w, "Errors:\t%d\n", r.failed)
	if r.total > 0 {
		fmt.Fprintf(w, "Error Rate:\t%.2f%%\n", float64(r.failed)/float64(r.total)*100)
		fmt.Fprintf(w, "Requests/sec:\t%.2f\n", float64(r.total)/duration.Seconds())
	}
	if r.success > 0 {
		fmt.Fprintf(w, "Cache Hit Rate:\t%.2f%%\n", float64(r.cacheHits)/float64(r.success)*100)
		fmt.Fprintf(w, "Empty Results:\t%d\n", r.empty)
	}

	if n := len(r.latencies); n > 0 {
		avg, stddev := r.mean()
		fmt.Fprintln(w, "\n=== Latency ===")
		fmt.Fprintf(w, "Min:\t%s\n", r.latencies[0])
		fmt.Fprintf(w, "Avg:\t%s\n", avg)
		for _, p := range []float64{50, 90, 95, 99} {
			fmt.Fprintf(w, "P%.0f:\t%s\n", p, percentile(r.latencies, p))
		}
		fmt.Fprintf(w, "Max:\t%s\n", r.latencies[n-1])
		fmt.Fprintf(w, "StdDev:\t%s\n", stddev)
	}

	fmt.Fprintln(w, "\n=== Status Codes ===")
	codes := make([]int, 0, len(r.codes))
	for code := range r.codes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d:\t%d\n", code, r.codes[code])
	}
	w.Flush()

	if r.total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the search server running?")
		os.Exit(1)
	}
}

// percentile uses the nearest-rank method on sorted.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
