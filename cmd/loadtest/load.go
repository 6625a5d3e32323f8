package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Queries     []string
	// FuzzyEvery sends every Nth search with fuzzy matching.
	FuzzyEvery int
	// ViewEvery fetches the top result of every Nth search.
	ViewEvery int
}

// Stats collects latencies per request kind ("search", "fuzzy", "view").
type Stats struct {
	mu        sync.Mutex
	latencies map[string][]time.Duration
	codes     map[int]int64
	errors    int64
	total     int64
}

func NewStats() *Stats {
	return &Stats{
		latencies: make(map[string][]time.Duration),
		codes:     make(map[int]int64),
	}
}

func (s *Stats) Record(kind string, d time.Duration, status int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if err != nil {
		s.errors++
		return
	}
	s.codes[status]++
	if status < 200 || status >= 300 {
		s.errors++
		return
	}
	s.latencies[kind] = append(s.latencies[kind], d)
}

func (s *Stats) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Stats) Errors() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors
}

// Count returns the successful requests of kind.
func (s *Stats) Count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.latencies[kind])
}

// Run drives cfg.Concurrency workers against the service until ctx ends.
func Run(ctx context.Context, client *http.Client, cfg Config) *Stats {
	stats := NewStats()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < max(cfg.Concurrency, 1); w++ {
		g.Go(func() error {
			worker(ctx, client, cfg, stats, w)
			return nil
		})
	}
	_ = g.Wait()
	return stats
}

type searchBody struct {
	Results []struct {
		Document struct {
			ID string `json:"id"`
		} `json:"document"`
	} `json:"results"`
}

func worker(ctx context.Context, client *http.Client, cfg Config, stats *Stats, id int) {
	for n := id; ctx.Err() == nil; n++ {
		query := cfg.Queries[n%len(cfg.Queries)]
		kind := "search"
		params := url.Values{"q": {query}, "limit": {"10"}}
		if cfg.FuzzyEvery > 0 && n%cfg.FuzzyEvery == 0 {
			kind = "fuzzy"
			params.Set("fuzzy", "true")
		}

		var body searchBody
		status, d, err := get(ctx, client, cfg.BaseURL+"/api/v1/search?"+params.Encode(), &body)
		if ctx.Err() != nil {
			return
		}
		stats.Record(kind, d, status, err)

		if cfg.ViewEvery <= 0 || n%cfg.ViewEvery != 0 || len(body.Results) == 0 {
			continue
		}
		docURL := cfg.BaseURL + "/api/v1/docs/" + body.Results[0].Document.ID
		status, d, err = get(ctx, client, docURL, nil)
		if ctx.Err() != nil {
			return
		}
		stats.Record("view", d, status, err)
	}
}

// get decodes a JSON response into out when out is non-nil.
func get(ctx context.Context, client *http.Client, rawURL string, out any) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("creating request: %w", err)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, time.Since(start), err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		err = json.NewDecoder(resp.Body).Decode(out)
	} else {
		_, err = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, time.Since(start), err
}

// Report prints throughput, per-kind latency percentiles and status codes.
func (s *Stats) Report(w io.Writer, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", s.total)
	fmt.Fprintf(w, "Errors:          %d\n", s.errors)
	if s.total > 0 {
		fmt.Fprintf(w, "Error Rate:      %.2f%%\n", float64(s.errors)/float64(s.total)*100)
		fmt.Fprintf(w, "Requests/sec:    %.2f\n", float64(s.total)/duration.Seconds())
	}

	kinds := make([]string, 0, len(s.latencies))
	for k := range s.latencies {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		latencies := append([]time.Duration(nil), s.latencies[kind]...)
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		fmt.Fprintf(w, "\n=== Latency: %s (%d) ===\n", kind, len(latencies))
		fmt.Fprintf(w, "Min:    %s\n", latencies[0])
		fmt.Fprintf(w, "Avg:    %s\n", sum/time.Duration(len(latencies)))
		fmt.Fprintf(w, "P50:    %s\n", percentile(latencies, 50))
		fmt.Fprintf(w, "P95:    %s\n", percentile(latencies, 95))
		fmt.Fprintf(w, "P99:    %s\n", percentile(latencies, 99))
		fmt.Fprintf(w, "Max:    %s\n", latencies[len(latencies)-1])
	}

	fmt.Fprintln(w, "\n=== Status Codes ===")
	codes := make([]int, 0, len(s.codes))
	for code := range s.codes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, s.codes[code])
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
