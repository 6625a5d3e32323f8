// Package metrics defines the Prometheus metric collectors used across the
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchResultsCount   prometheus.Histogram
	QueryCacheHitsTotal  prometheus.Counter
	QueryCacheMissTotal  prometheus.Counter
	IndexRebuildsTotal   prometheus.Counter
	IndexedDocuments     prometheus.Gauge
	CacheEvictionsTotal  *prometheus.CounterVec
	CacheEntries         *prometheus.GaugeVec
	StorageFailures      *prometheus.CounterVec
	CleanupFailures      prometheus.Counter
	OperationDuration    *prometheus.HistogramVec
	MonitorValues        *prometheus.GaugeVec
}

// New creates all collectors and registers them with reg. A nil reg uses
// the default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_search_queries_total",
				Help: "Total search queries by result type (hit, miss, empty_query, zero_result).",
			},
			[]string{"result_type"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docsearch_search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		QueryCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_query_cache_hits_total",
				Help: "Total number of search result cache hits.",
			},
		),
		QueryCacheMissTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_query_cache_misses_total",
				Help: "Total number of search result cache misses.",
			},
		),
		IndexRebuildsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_index_rebuilds_total",
				Help: "Total full rebuilds of the search index.",
			},
		),
		IndexedDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_indexed_documents",
				Help: "Number of documents in the current search index.",
			},
		),
		CacheEvictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_cache_evictions_total",
				Help: "Total LRU evictions per cache namespace.",
			},
			[]string{"namespace"},
		),
		CacheEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "docsearch_cache_entries",
				Help: "Entries held in memory per cache namespace.",
			},
			[]string{"namespace"},
		),
		StorageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_storage_failures_total",
				Help: "Durable store failures by operation (read, write, remove).",
			},
			[]string{"op"},
		),
		CleanupFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_cleanup_task_failures_total",
				Help: "Cleanup tasks that returned an error or panicked.",
			},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docsearch_operation_duration_milliseconds",
				Help:    "Timed operations reported by the performance monitor.",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 1000},
			},
			[]string{"label"},
		),
		MonitorValues: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "docsearch_monitor_value",
				Help: "Last untimed sample reported by the performance monitor.",
			},
			[]string{"label"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchResultsCount,
		m.QueryCacheHitsTotal,
		m.QueryCacheMissTotal,
		m.IndexRebuildsTotal,
		m.IndexedDocuments,
		m.CacheEvictionsTotal,
		m.CacheEntries,
		m.StorageFailures,
		m.CleanupFailures,
		m.OperationDuration,
		m.MonitorValues,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
