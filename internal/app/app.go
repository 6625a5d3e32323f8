// Package app wires the documentation search components together from
// configuration. One App is built at startup and closed at shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/handler"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/loader/fs"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/memory"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/perf"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searchmgr"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/storage"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const snapshotInterval = time.Minute

// App owns every long-lived component. Teardown work is registered with
// Memory and runs once from Close.
type App struct {
	Config     *config.Config
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	Store      storage.Store
	Memory     *memory.Manager
	Monitor    *perf.Monitor
	Loader     *loader.Loader
	Index      *search.Index
	Aggregator *analytics.Aggregator
	Collector  *analytics.Collector
	Snapshots  *aggregator.Store
	Search     *searchmgr.Manager
	Health     *health.Checker

	cancel context.CancelFunc
	logger *slog.Logger
}

type options struct {
	source loader.Source
	store  storage.Store
}

type Option func(*options)

// WithSource replaces the filesystem source rooted at cfg.Docs.Root.
func WithSource(s loader.Source) Option {
	return func(o *options) { o.source = s }
}

// WithStore replaces the store selected by cfg.Storage.Backend.
func WithStore(s storage.Store) Option {
	return func(o *options) { o.store = s }
}

// New builds the application. Background work (analytics publishing and
// snapshots) runs until Close.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	a := &App{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
		logger:   slog.Default().With("component", "app"),
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	a.Memory = memory.New(
		memory.WithThreshold(cfg.Memory.Threshold),
		memory.WithRuntimeStats(cfg.Memory.Limit),
		memory.WithMetrics(a.Metrics),
	)
	a.Monitor = perf.New(perf.WithWindow(cfg.Perf.Window))
	a.Monitor.Observe(perf.NewPrometheusObserver(a.Metrics))

	a.Store = o.store
	if a.Store == nil {
		store, err := storage.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("opening durable store: %w", err)
		}
		a.Store = store
	}

	bodies := cache.NewPersistent[string](ctx, a.Store, cfg.Cache.Namespace, cfg.Cache.Capacity,
		cache.WithKeyPrefix(cfg.Storage.KeyPrefix),
		cache.WithStoreTimeout(cfg.Storage.OpTimeout),
		cache.WithBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.Storage.FailureThreshold,
			ResetTimeout:     cfg.Storage.ResetTimeout,
		}),
		cache.WithMetrics(a.Metrics),
	)
	source := o.source
	if source == nil {
		source = fs.NewSource(cfg.Docs.Root, cfg.Docs.Extension)
	}
	a.Loader = loader.New(source, bodies,
		loader.WithConcurrency(cfg.Docs.Concurrency),
		loader.WithMonitor(a.Monitor),
		loader.WithMemoryManager(a.Memory),
	)

	a.Index = search.New(
		search.WithQueryCacheSize(cfg.Search.QueryCacheSize),
		search.WithFuzzyPenalty(cfg.Search.FuzzyPenalty),
		search.WithMetrics(a.Metrics),
	)

	bgCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Aggregator = analytics.NewAggregator()
	collectorOpts := []analytics.CollectorOption{
		analytics.WithBuffer(cfg.Kafka.Buffer),
		analytics.WithBatching(cfg.Kafka.BatchSize, cfg.Kafka.FlushInterval),
	}
	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka)
		collectorOpts = append(collectorOpts, analytics.WithPublisher(producer))
	}
	a.Collector = analytics.NewCollector(a.Aggregator, collectorOpts...)
	a.Collector.Start(bgCtx)
	a.Memory.Add(a.Collector.Close)
	if producer != nil {
		a.Memory.Add(producer.Close)
	}

	a.Snapshots = aggregator.NewStore(a.Store, cfg.Storage.KeyPrefix+"-analytics")
	snapshotsDone := a.Snapshots.StartPeriodicSave(bgCtx, a.Aggregator, snapshotInterval)
	a.Memory.Add(func() error {
		cancel()
		<-snapshotsDone
		return nil
	})

	a.Search = searchmgr.New(a.Loader, a.Index,
		searchmgr.WithDefaults(search.Options{
			SearchInTags:  cfg.Search.SearchInTags,
			FuzzySearch:   cfg.Search.FuzzySearch,
			CaseSensitive: cfg.Search.CaseSensitive,
			MaxResults:    cfg.Search.MaxResults,
		}),
		searchmgr.WithTracker(a.Collector),
		searchmgr.WithMonitor(a.Monitor),
	)

	a.Health = health.NewChecker()
	if p, ok := a.Store.(storage.Pinger); ok {
		a.Health.Register("storage", health.DegradedOnError(p))
	}
	a.Health.Register("cache", health.Condition(func() bool { return !bodies.Degraded() }, "durable writes suspended"))
	a.Health.Register("memory", health.Condition(a.Memory.CheckUsage, "memory usage above threshold"))

	a.Memory.Add(func() error {
		a.Monitor.Cleanup()
		return nil
	})
	// The store closes last; earlier tasks may still write to it.
	a.Memory.Add(a.Store.Close)

	a.logger.Info("application initialized",
		"storage", cfg.Storage.Backend,
		"docs_root", cfg.Docs.Root,
		"analytics_publishing", producer != nil,
	)
	return a, nil
}

// Handler returns the HTTP API with health and analytics routes, wrapped in
// request ID, metrics and timeout middleware.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	handler.New(a.Search, a.Monitor, a.Memory, a.Config.Search.MaxLimit).Register(mux)
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(a.Aggregator).Stats)
	mux.HandleFunc("GET /health/live", a.Health.LiveHandler())
	mux.HandleFunc("GET /health/ready", a.Health.ReadyHandler())

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Metrics(a.Metrics),
		middleware.Timeout(a.Config.Server.WriteTimeout),
	)
}

// Close runs every registered teardown task once.
func (a *App) Close() {
	a.Memory.Cleanup()
	a.cancel()
	a.logger.Info("application closed")
}
