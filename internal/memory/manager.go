// Package memory tracks teardown work registered by long-lived components
// and reports whether the process is close to its memory limit.
package memory

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
)

// DefaultThreshold is the used/limit ratio above which CheckUsage reports
// pressure.
const DefaultThreshold = 0.9

// TaskID identifies a registered cleanup task.
type TaskID uint64

// Stats is a snapshot of heap usage. All fields are bytes.
type Stats struct {
	Used  uint64 `json:"used"`
	Total uint64 `json:"total"`
	Limit uint64 `json:"limit"`
}

// StatsFunc reports current memory usage. ok is false when the platform
// cannot provide figures.
type StatsFunc func() (stats Stats, ok bool)

type task struct {
	id TaskID
	fn func() error
}

// Manager is safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	tasks  []task
	nextID TaskID

	threshold float64
	stats     StatsFunc
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Manager)

// WithThreshold sets the pressure ratio. Values outside (0, 1] are ignored.
func WithThreshold(t float64) Option {
	return func(m *Manager) {
		if t > 0 && t <= 1 {
			m.threshold = t
		}
	}
}

// WithStatsFunc installs a usage provider. Without one, CheckUsage always
// reports healthy and Stats returns zeros.
func WithStatsFunc(fn StatsFunc) Option {
	return func(m *Manager) { m.stats = fn }
}

// WithRuntimeStats reads usage from the Go runtime. limit overrides the
// soft memory limit when non-zero.
func WithRuntimeStats(limit uint64) Option {
	return WithStatsFunc(func() (Stats, bool) {
		return RuntimeStats(limit), true
	})
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func New(opts ...Option) *Manager {
	m := &Manager{
		threshold: DefaultThreshold,
		logger:    slog.Default().With("component", "memory-manager"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add registers fn to run on the next Cleanup.
func (m *Manager) Add(fn func() error) TaskID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.tasks = append(m.tasks, task{id: m.nextID, fn: fn})
	return m.nextID
}

// Remove unregisters a task. It reports whether the task was registered.
func (m *Manager) Remove(id TaskID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tasks {
		if t.id == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered tasks.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Cleanup runs every registered task in registration order and clears the
// registry. A task that fails or panics is logged and the rest still run.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	tasks := m.tasks
	m.tasks = nil
	m.mu.Unlock()

	failed := 0
	for _, t := range tasks {
		if err := run(t.fn); err != nil {
			failed++
			m.logger.Error("cleanup task failed", "task", t.id, "error", err)
			if m.metrics != nil {
				m.metrics.CleanupFailures.Inc()
			}
		}
	}
	m.logger.Debug("cleanup complete", "tasks", len(tasks), "failed", failed)
}

func run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// CheckUsage reports whether usage is at or below the threshold. It returns
// true when no figures are available.
func (m *Manager) CheckUsage() bool {
	if m.stats == nil {
		return true
	}
	s, ok := m.stats()
	if !ok || s.Limit == 0 {
		return true
	}
	ratio := float64(s.Used) / float64(s.Limit)
	if ratio > m.threshold {
		m.logger.Warn("memory usage above threshold",
			"used", s.Used,
			"limit", s.Limit,
			"ratio", ratio,
			"threshold", m.threshold,
		)
		return false
	}
	return true
}

// Stats returns current usage, or zeros when no provider is set.
func (m *Manager) Stats() Stats {
	if m.stats == nil {
		return Stats{}
	}
	s, ok := m.stats()
	if !ok {
		return Stats{}
	}
	return s
}

// RuntimeStats reads heap figures from the runtime. When limit is zero the
// soft memory limit is used; an unset limit falls back to heap reserved
// from the OS.
func RuntimeStats(limit uint64) Stats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if limit == 0 {
		if soft := debug.SetMemoryLimit(-1); soft > 0 && soft != math.MaxInt64 {
			limit = uint64(soft)
		} else {
			limit = ms.Sys
		}
	}
	return Stats{Used: ms.HeapAlloc, Total: ms.Sys, Limit: limit}
}
