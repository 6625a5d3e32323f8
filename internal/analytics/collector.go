// Package analytics records search and indexing events. Events are folded
// into an in-process Aggregator and, when a publisher is configured,
// batched to Kafka.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/kafka"
)

const (
	defaultBuffer        = 1000
	defaultBatchSize     = 100
	defaultFlushInterval = 5 * time.Second
)

// Publisher writes a batch of events. *kafka.Producer implements it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Tracker accepts events without blocking.
type Tracker interface {
	Track(event any)
}

// Collector feeds events to an Aggregator and queues them for publishing.
// Track never blocks; a full queue drops the event.
type Collector struct {
	publisher     Publisher
	aggregator    *Aggregator
	eventCh       chan kafka.Event
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger

	mu      sync.RWMutex
	started bool
	closed  bool
	done    chan struct{}
}

type CollectorOption func(*Collector)

// WithPublisher enables publishing. Without one, events only reach the
// aggregator.
func WithPublisher(p Publisher) CollectorOption {
	return func(c *Collector) { c.publisher = p }
}

func WithBuffer(n int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.eventCh = make(chan kafka.Event, n)
		}
	}
}

// WithBatching sets how many events are published together and how long a
// partial batch may wait.
func WithBatching(size int, interval time.Duration) CollectorOption {
	return func(c *Collector) {
		if size > 0 {
			c.batchSize = size
		}
		if interval > 0 {
			c.flushInterval = interval
		}
	}
}

func NewCollector(aggregator *Aggregator, opts ...CollectorOption) *Collector {
	c := &Collector{
		aggregator:    aggregator,
		eventCh:       make(chan kafka.Event, defaultBuffer),
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the publish loop. It is a no-op without a publisher.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publisher == nil || c.started || c.closed {
		return
	}
	c.started = true
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

// Track records event. Unknown event types are ignored.
func (c *Collector) Track(event any) {
	key, ok := keyFor(event)
	if !ok {
		c.logger.Warn("unknown analytics event ignored")
		return
	}
	if c.aggregator != nil {
		c.aggregator.Record(event)
	}
	if c.publisher == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.eventCh <- kafka.Event{Key: key, Value: event}:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events, publishes what is queued and waits for the
// loop to exit. It is safe to call more than once.
func (c *Collector) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.eventCh)
	started := c.started
	c.mu.Unlock()

	if started {
		<-c.done
	}
	return nil
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := c.publisher.PublishBatch(ctx, batch); err != nil {
			c.logger.Error("failed to publish analytics batch", "events", len(batch), "error", err)
		} else {
			c.logger.Debug("analytics batch published", "events", len(batch))
		}
		batch = make([]kafka.Event, 0, c.batchSize)
	}

	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				flush(flushCtx)
				cancel()
				return
			}
			batch = append(batch, event)
			if len(batch) >= c.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			c.drain(&batch)
			flush(flushCtx)
			cancel()
			return
		}
	}
}

func (c *Collector) drain(batch *[]kafka.Event) {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			*batch = append(*batch, event)
		default:
			return
		}
	}
}

func keyFor(event any) (string, bool) {
	switch event.(type) {
	case SearchEvent, *SearchEvent:
		return "search", true
	case IndexEvent, *IndexEvent:
		return "index", true
	default:
		return "", false
	}
}
