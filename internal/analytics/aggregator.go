package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// maxLatencySamples bounds the latency history used for percentiles.
const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalSearches     int64        `json:"total_searches"`
	IndexBuilds       int64        `json:"index_builds"`
	IndexErrors       int64        `json:"index_errors"`
	IndexedDocuments  int          `json:"indexed_documents"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      float64      `json:"p50_latency_ms"`
	P95LatencyMs      float64      `json:"p95_latency_ms"`
	P99LatencyMs      float64      `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds events into running totals. It is safe for concurrent
// use.
type Aggregator struct {
	mu                sync.Mutex
	stats             AggregatedStats
	latencies         []float64
	nextLatency       int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time
	now               func() time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         make([]float64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		now:               time.Now,
	}
}

// Record folds one SearchEvent or IndexEvent into the totals.
func (a *Aggregator) Record(event any) {
	switch e := event.(type) {
	case SearchEvent:
		a.recordSearch(e)
	case *SearchEvent:
		a.recordSearch(*e)
	case IndexEvent:
		a.recordIndex(e)
	case *IndexEvent:
		a.recordIndex(*e)
	}
}

// HandleMessage decodes a published event by its key and records it.
// Messages with unknown keys are skipped.
func (a *Aggregator) HandleMessage(_ context.Context, key, value []byte) error {
	switch string(key) {
	case "search":
		var e SearchEvent
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("decoding search event: %w", err)
		}
		a.recordSearch(e)
	case "index":
		var e IndexEvent
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("decoding index event: %w", err)
		}
		a.recordIndex(e)
	}
	return nil
}

func (a *Aggregator) recordSearch(e SearchEvent) {
	query := normalizeQuery(e.Query)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.TotalSearches++
	if e.CacheHit {
		a.stats.CacheHits++
	} else {
		a.stats.CacheMisses++
	}
	if e.Returned == 0 {
		a.stats.ZeroResultCount++
		a.zeroResultQueries[query]++
	}
	a.queryCounts[query]++
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, e.LatencyMs)
	} else {
		a.latencies[a.nextLatency] = e.LatencyMs
		a.nextLatency = (a.nextLatency + 1) % maxLatencySamples
	}
}

func (a *Aggregator) recordIndex(e IndexEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if e.Type == EventIndexError {
		a.stats.IndexErrors++
		return
	}
	a.stats.IndexBuilds++
	a.stats.IndexedDocuments = e.Documents
}

// Stats returns a snapshot of the totals with the ten most frequent
// queries and zero-result queries.
func (a *Aggregator) Stats() AggregatedStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := a.stats
	if len(a.latencies) > 0 {
		sorted := make([]float64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Float64s(sorted)
		var sum float64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = sum / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, 10)
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count descending, then query, so equal counts are stable.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
