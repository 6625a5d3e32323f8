// Package loader reads documents from a Source and keeps their bodies in a
// persistent cache so repeated views do not reread them. Index rebuilds
// always read through to the source.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/docs"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/memory"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/perf"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const defaultConcurrency = 8

// ErrClosed is returned by loads after Close.
var ErrClosed = errors.New("loader closed")

// Source provides document metadata and bodies.
type Source interface {
	List(ctx context.Context) ([]docs.Record, error)
	Content(ctx context.Context, id string) (string, error)
}

// Loader is safe for concurrent use. Concurrent loads of the same document
// share one read from the source.
type Loader struct {
	source      Source
	bodies      *cache.Persistent[string]
	group       singleflight.Group
	concurrency int
	monitor     *perf.Monitor
	memory      *memory.Manager
	closed      atomic.Bool
	logger      *slog.Logger
}

type Option func(*Loader)

// WithConcurrency bounds parallel reads in LoadAll.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithMonitor times listing and loading.
func WithMonitor(m *perf.Monitor) Option {
	return func(l *Loader) { l.monitor = m }
}

// WithMemoryManager registers Close as a cleanup task and stops caching
// bodies while the manager reports memory pressure.
func WithMemoryManager(m *memory.Manager) Option {
	return func(l *Loader) { l.memory = m }
}

func New(source Source, bodies *cache.Persistent[string], opts ...Option) *Loader {
	l := &Loader{
		source:      source,
		bodies:      bodies,
		concurrency: defaultConcurrency,
		logger:      slog.Default().With("component", "loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.memory != nil {
		l.memory.Add(l.Close)
	}
	return l
}

// Records lists and validates every document the source knows about.
func (l *Loader) Records(ctx context.Context) ([]docs.Record, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}
	defer l.time("list-documents")()
	records, err := l.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs.Normalize(records)
}

// Content returns the body of document id, from cache when possible.
func (l *Loader) Content(ctx context.Context, id string) (string, error) {
	if l.closed.Load() {
		return "", ErrClosed
	}
	if body, ok := l.bodies.Get(id); ok {
		return body, nil
	}
	// The flight outlives any single caller, so one caller's cancellation
	// must not fail the others sharing it.
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := l.group.Do(id, func() (interface{}, error) {
		if body, ok := l.bodies.Get(id); ok {
			return body, nil
		}
		return l.fetch(flightCtx, id)
	})
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", id, err)
	}
	if shared {
		l.logger.Debug("document load shared", "id", id)
	}
	return v.(string), nil
}

// reload reads id from the source regardless of the cache and replaces the
// cached body.
func (l *Loader) reload(ctx context.Context, id string) (string, error) {
	if l.closed.Load() {
		return "", ErrClosed
	}
	v, err, _ := l.group.Do("reload\x00"+id, func() (interface{}, error) {
		return l.fetch(ctx, id)
	})
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", id, err)
	}
	return v.(string), nil
}

func (l *Loader) fetch(ctx context.Context, id string) (string, error) {
	defer l.time("load-document")()
	body, err := l.source.Content(ctx, id)
	if err != nil {
		return "", err
	}
	l.remember(ctx, id, body)
	return body, nil
}

// LoadAll reads the body of every record from the source in parallel and
// refreshes the cache with what it read, so edits reach the index on the
// next rebuild. Documents the source no longer has are skipped and indexed
// by metadata only; any other failure aborts the load. Cached bodies of
// documents outside records are dropped.
func (l *Loader) LoadAll(ctx context.Context, records []docs.Record) (docs.ContentMap, error) {
	defer l.time("load-all")()
	content := make(docs.ContentMap, len(records))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for _, r := range records {
		id := r.ID
		g.Go(func() error {
			body, err := l.reload(gctx, id)
			if errors.Is(err, apperrors.ErrDocumentNotFound) {
				l.logger.Warn("document body missing", "id", id)
				l.bodies.Delete(gctx, id)
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			content[id] = body
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	l.prune(ctx, records)
	l.logger.Info("documents loaded", "count", len(content), "cached", l.bodies.Len())
	return content, nil
}

func (l *Loader) prune(ctx context.Context, records []docs.Record) {
	known := make(map[string]struct{}, len(records))
	for _, r := range records {
		known[r.ID] = struct{}{}
	}
	for _, id := range l.bodies.Keys() {
		if _, ok := known[id]; !ok {
			l.bodies.Delete(ctx, id)
			l.logger.Debug("dropped cached body of removed document", "id", id)
		}
	}
}

// Invalidate drops the cached body of id so the next load rereads it.
func (l *Loader) Invalidate(ctx context.Context, id string) bool {
	l.group.Forget(id)
	return l.bodies.Delete(ctx, id)
}

// CacheStats reports the body cache's entry count and approximate size.
func (l *Loader) CacheStats() (entries int, bytes int64) {
	return l.bodies.Len(), l.bodies.MemoryUsage()
}

// Close makes further loads fail. Cached bodies stay in the durable store
// for the next process.
func (l *Loader) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	l.logger.Debug("loader closed")
	return nil
}

func (l *Loader) remember(ctx context.Context, id, body string) {
	if cached, ok := l.bodies.Get(id); ok && cached == body {
		return
	}
	if l.memory != nil && !l.memory.CheckUsage() {
		l.logger.Warn("memory pressure, document body not cached", "id", id, "bytes", len(body))
		l.bodies.Delete(ctx, id)
		return
	}
	l.bodies.Set(ctx, id, body)
}

func (l *Loader) time(label string) func() {
	if l.monitor == nil {
		return func() {}
	}
	return l.monitor.StartTiming(label)
}
