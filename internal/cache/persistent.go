package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

// DefaultKeyPrefix scopes cache snapshots inside a shared durable store.
const DefaultKeyPrefix = "docsearch-cache"

type snapshotEntry[V any] struct {
	Key   string `json:"key"`
	Value V      `json:"value"`
}

// Persistent is an LRU whose contents are mirrored into a durable store
// under a single namespaced key. Reads are served from memory only; every
// mutation rewrites the whole snapshot, so evicted keys disappear from the
// store on the next write. Store failures are logged and never returned.
type Persistent[V any] struct {
	lru       *LRU[string, V]
	store     storage.Store
	namespace string
	key       string
	breaker   *resilience.CircuitBreaker
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// persistMu orders snapshot writes. Each store call has returned
	// before the next snapshot is taken, so the last write carries the
	// newest state.
	persistMu sync.Mutex
}

type persistentOptions struct {
	prefix  string
	timeout time.Duration
	breaker resilience.CircuitBreakerConfig
	metrics *metrics.Metrics
}

// PersistentOption customizes NewPersistent.
type PersistentOption func(*persistentOptions)

// WithKeyPrefix replaces DefaultKeyPrefix.
func WithKeyPrefix(prefix string) PersistentOption {
	return func(o *persistentOptions) { o.prefix = prefix }
}

// WithStoreTimeout bounds each durable store call. Zero disables the bound.
func WithStoreTimeout(d time.Duration) PersistentOption {
	return func(o *persistentOptions) { o.timeout = d }
}

// WithBreaker configures the circuit breaker guarding durable writes.
func WithBreaker(cfg resilience.CircuitBreakerConfig) PersistentOption {
	return func(o *persistentOptions) { o.breaker = cfg }
}

// WithMetrics reports evictions, entry counts and store failures.
func WithMetrics(m *metrics.Metrics) PersistentOption {
	return func(o *persistentOptions) { o.metrics = m }
}

// NewPersistent creates a cache for namespace and rehydrates it from the
// store. A failed or corrupt read leaves the cache empty.
func NewPersistent[V any](ctx context.Context, store storage.Store, namespace string, capacity int, opts ...PersistentOption) *Persistent[V] {
	o := persistentOptions{prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	p := &Persistent[V]{
		lru:       NewLRU[string, V](capacity),
		store:     store,
		namespace: namespace,
		key:       o.prefix + "-" + namespace,
		breaker:   resilience.NewCircuitBreaker("cache-"+namespace, o.breaker),
		timeout:   o.timeout,
		metrics:   o.metrics,
		logger:    slog.Default().With("component", "persistent-cache", "namespace", namespace),
	}
	if p.metrics != nil {
		p.lru.OnEvict(func(string, V) {
			p.metrics.CacheEvictionsTotal.WithLabelValues(namespace).Inc()
		})
	}
	p.hydrate(ctx)
	return p
}

// Key returns the durable store key holding this cache's snapshot.
func (p *Persistent[V]) Key() string {
	return p.key
}

func (p *Persistent[V]) Get(key string) (V, bool) {
	return p.lru.Get(key)
}

func (p *Persistent[V]) Has(key string) bool {
	return p.lru.Has(key)
}

func (p *Persistent[V]) Len() int {
	return p.lru.Len()
}

func (p *Persistent[V]) Capacity() int {
	return p.lru.Capacity()
}

// Keys lists cached keys, most recently used first.
func (p *Persistent[V]) Keys() []string {
	return p.lru.Keys()
}

func (p *Persistent[V]) MemoryUsage() int64 {
	return p.lru.MemoryUsage()
}

// Set stores value in memory, then best-effort writes the snapshot.
func (p *Persistent[V]) Set(ctx context.Context, key string, value V) {
	p.lru.Set(key, value)
	p.persist(ctx)
}

// Delete removes key from memory and rewrites the snapshot if it was present.
func (p *Persistent[V]) Delete(ctx context.Context, key string) bool {
	if !p.lru.Delete(key) {
		return false
	}
	p.persist(ctx)
	return true
}

// Clear empties the cache and removes its snapshot from the store.
func (p *Persistent[V]) Clear(ctx context.Context) {
	p.persistMu.Lock()
	defer p.persistMu.Unlock()
	p.lru.Clear()
	p.observeLen()
	err := p.withTimeout(ctx, "cache-remove", func(ctx context.Context) error {
		return p.store.Remove(ctx, p.key)
	})
	if err != nil {
		p.storageFailure("remove")
		p.logger.Warn("failed to remove cache snapshot", "key", p.key, "error", err)
	}
}

// Degraded reports whether durable writes are currently being skipped.
func (p *Persistent[V]) Degraded() bool {
	return p.breaker.GetState() != resilience.StateClosed
}

func (p *Persistent[V]) hydrate(ctx context.Context) {
	var raw string
	var found bool
	err := p.withTimeout(ctx, "cache-hydrate", func(ctx context.Context) error {
		var err error
		raw, found, err = p.store.Get(ctx, p.key)
		return err
	})
	if err != nil {
		p.storageFailure("read")
		p.logger.Warn("cache rehydration failed, starting empty",
			"key", p.key,
			"error", fmt.Errorf("%w: %v", apperrors.ErrStorageRead, err),
		)
		return
	}
	if !found {
		return
	}
	var entries []snapshotEntry[V]
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		p.storageFailure("read")
		p.logger.Warn("corrupt cache snapshot ignored", "key", p.key, "error", err)
		return
	}
	for _, e := range entries {
		p.lru.Set(e.Key, e.Value)
	}
	p.observeLen()
	p.logger.Debug("cache rehydrated", "entries", p.lru.Len())
}

func (p *Persistent[V]) persist(ctx context.Context) {
	p.persistMu.Lock()
	defer p.persistMu.Unlock()
	p.observeLen()

	entries := make([]snapshotEntry[V], 0, p.lru.Len())
	p.lru.Entries(func(k string, v V) {
		entries = append(entries, snapshotEntry[V]{Key: k, Value: v})
	})
	data, err := json.Marshal(entries)
	if err != nil {
		p.storageFailure("write")
		p.logger.Warn("cache snapshot not serializable", "key", p.key, "error", err)
		return
	}

	err = p.breaker.Execute(func() error {
		return p.withTimeout(ctx, "cache-persist", func(ctx context.Context) error {
			return p.store.Set(ctx, p.key, string(data))
		})
	})
	switch {
	case err == nil:
	case errors.Is(err, resilience.ErrCircuitOpen):
		p.logger.Debug("durable write skipped", "key", p.key, "reason", err)
	default:
		p.storageFailure("write")
		p.logger.Warn("durable write failed, continuing in memory",
			"key", p.key,
			"bytes", len(data),
			"error", fmt.Errorf("%w: %v", apperrors.ErrStorageWrite, err),
		)
	}
}

func (p *Persistent[V]) withTimeout(ctx context.Context, name string, fn func(context.Context) error) error {
	return resilience.WithTimeout(ctx, p.timeout, name, fn)
}

func (p *Persistent[V]) storageFailure(op string) {
	if p.metrics != nil {
		p.metrics.StorageFailures.WithLabelValues(op).Inc()
	}
}

func (p *Persistent[V]) observeLen() {
	if p.metrics != nil {
		p.metrics.CacheEntries.WithLabelValues(p.namespace).Set(float64(p.lru.Len()))
	}
}
