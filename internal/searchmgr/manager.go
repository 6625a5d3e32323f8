// Package searchmgr keeps the search index in sync with the loaded
// documents and runs searches on behalf of the HTTP and CLI surfaces.
package searchmgr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/docs"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/perf"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
)

// Manager is safe for concurrent use. Refresh calls are serialized; searches
// run alongside them against whichever index is current.
type Manager struct {
	loader   *loader.Loader
	index    *search.Index
	defaults search.Options
	tracker  analytics.Tracker
	monitor  *perf.Monitor
	logger   *slog.Logger

	refreshMu   sync.Mutex
	lastRefresh atomic.Int64
	now         func() time.Time
}

type Option func(*Manager)

// WithDefaults sets the options used for fields a search does not override.
func WithDefaults(opts search.Options) Option {
	return func(m *Manager) { m.defaults = opts }
}

func WithTracker(t analytics.Tracker) Option {
	return func(m *Manager) { m.tracker = t }
}

func WithMonitor(mon *perf.Monitor) Option {
	return func(m *Manager) { m.monitor = mon }
}

func New(l *loader.Loader, idx *search.Index, opts ...Option) *Manager {
	m := &Manager{
		loader:   l,
		index:    idx,
		defaults: search.DefaultOptions(),
		logger:   slog.Default().With("component", "search-manager"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Refresh reloads every document and rebuilds the index. On failure the
// previous index stays in place.
func (m *Manager) Refresh(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	start := m.now()
	err := m.refresh(ctx)
	elapsed := m.now().Sub(start)
	m.record("index-build", elapsed)

	event := analytics.IndexEvent{
		Type:      analytics.EventIndexBuild,
		LatencyMs: millis(elapsed),
		Timestamp: start,
	}
	if err != nil {
		event.Type = analytics.EventIndexError
		event.Error = err.Error()
		m.track(event)
		m.log(ctx).Error("index refresh failed", "error", err)
		return err
	}
	stats := m.index.Stats()
	event.Documents = stats.Documents
	event.Terms = stats.Terms
	event.Generation = stats.Generation
	m.track(event)
	m.lastRefresh.Store(start.UnixNano())
	return nil
}

func (m *Manager) refresh(ctx context.Context) error {
	records, err := m.loader.Records(ctx)
	if err != nil {
		return fmt.Errorf("refreshing index: %w", err)
	}
	content, err := m.loader.LoadAll(ctx, records)
	if err != nil {
		return fmt.Errorf("refreshing index: %w", err)
	}
	if err := m.index.Update(records, content); err != nil {
		return fmt.Errorf("refreshing index: %w", err)
	}
	return nil
}

// Search merges overrides onto the manager's defaults and queries the
// index.
func (m *Manager) Search(ctx context.Context, query string, overrides search.Overrides) []search.Result {
	opts := overrides.Merge(m.defaults)
	start := m.now()
	results, cached := m.index.SearchCached(query, opts)
	elapsed := m.now().Sub(start)
	m.record("search", elapsed)

	eventType := analytics.EventSearch
	if len(results) == 0 {
		eventType = analytics.EventZeroResult
	}
	m.track(analytics.SearchEvent{
		Type:         eventType,
		Query:        query,
		Returned:     len(results),
		LatencyMs:    millis(elapsed),
		CacheHit:     cached,
		Fuzzy:        opts.FuzzySearch,
		SearchInTags: opts.SearchInTags,
		Timestamp:    start,
		RequestID:    logger.RequestID(ctx),
	})
	m.log(ctx).Debug("search executed",
		"query", query,
		"results", len(results),
		"cached", cached,
		"elapsed", elapsed,
	)
	return results
}

// Document returns an indexed document and its body.
func (m *Manager) Document(ctx context.Context, id string) (docs.Record, string, error) {
	record, ok := m.index.Document(id)
	if !ok {
		return docs.Record{}, "", fmt.Errorf("%w: %s", apperrors.ErrDocumentNotFound, id)
	}
	start := m.now()
	body, err := m.loader.Content(ctx, id)
	m.record("document-view", m.now().Sub(start))
	if err != nil {
		return docs.Record{}, "", err
	}
	return record, body, nil
}

// Stats describes the index and when it was last rebuilt. LastRefresh is
// zero before the first successful Refresh.
type Stats struct {
	Index       search.Stats `json:"index"`
	LastRefresh time.Time    `json:"last_refresh"`
	CachedDocs  int          `json:"cached_documents"`
	CachedBytes int64        `json:"cached_bytes"`
}

func (m *Manager) Stats() Stats {
	var last time.Time
	if ns := m.lastRefresh.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	entries, size := m.loader.CacheStats()
	return Stats{
		Index:       m.index.Stats(),
		LastRefresh: last,
		CachedDocs:  entries,
		CachedBytes: size,
	}
}

// Defaults returns the options applied when a search does not override them.
func (m *Manager) Defaults() search.Options {
	return m.defaults
}

func (m *Manager) log(ctx context.Context) *slog.Logger {
	if id := logger.RequestID(ctx); id != "" {
		return m.logger.With("request_id", id)
	}
	return m.logger
}

func (m *Manager) track(event any) {
	if m.tracker != nil {
		m.tracker.Track(event)
	}
}

func (m *Manager) record(label string, d time.Duration) {
	if m.monitor != nil {
		m.monitor.RecordDuration(label, d)
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
