// Package perf records timing and value samples per label and summarizes
// a rolling window of the most recent ones.
package perf

import (
	"sync"
	"time"
)

// DefaultWindow is the number of samples kept per label.
const DefaultWindow = 100

// Stats summarizes the samples currently in a label's window. All fields are
// zero for a label that has no samples.
type Stats struct {
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Observer receives every sample as it is recorded.
type Observer interface {
	ObserveSample(label string, value float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(label string, value float64)

func (f ObserverFunc) ObserveSample(label string, value float64) { f(label, value) }

// DurationObserver is implemented by observers that treat timings apart from
// other samples. Durations recorded through StartTiming or RecordDuration go
// to ObserveDuration in milliseconds; observers without it get ObserveSample.
type DurationObserver interface {
	ObserveDuration(label string, millis float64)
}

// ring holds the last len(values) samples; next is the slot to overwrite.
type ring struct {
	values []float64
	next   int
	full   bool
}

func (r *ring) add(v float64) {
	r.values[r.next] = v
	r.next++
	if r.next == len(r.values) {
		r.next = 0
		r.full = true
	}
}

func (r *ring) samples() []float64 {
	if r.full {
		return r.values
	}
	return r.values[:r.next]
}

func (r *ring) stats() Stats {
	samples := r.samples()
	if len(samples) == 0 {
		return Stats{}
	}
	s := Stats{Count: len(samples), Min: samples[0], Max: samples[0]}
	var sum float64
	for _, v := range samples {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Avg = sum / float64(len(samples))
	return s
}

// Monitor is safe for concurrent use.
type Monitor struct {
	mu        sync.Mutex
	window    int
	labels    map[string]*ring
	observers []Observer
	now       func() time.Time
}

type Option func(*Monitor)

// WithWindow overrides DefaultWindow.
func WithWindow(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.window = n
		}
	}
}

// WithClock replaces time.Now for StartTiming.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func New(opts ...Option) *Monitor {
	m := &Monitor{
		window: DefaultWindow,
		labels: make(map[string]*ring),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartTiming starts a timer for label. The returned stop function records
// the elapsed milliseconds; calls after the first do nothing.
func (m *Monitor) StartTiming(label string) func() {
	start := m.now()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.RecordDuration(label, m.now().Sub(start))
		})
	}
}

// Record appends value to label's window, dropping the oldest sample once
// the window is full.
func (m *Monitor) Record(label string, value float64) {
	m.record(label, value, false)
}

// RecordDuration records d in milliseconds and reports it as a timing.
func (m *Monitor) RecordDuration(label string, d time.Duration) {
	m.record(label, float64(d)/float64(time.Millisecond), true)
}

func (m *Monitor) record(label string, value float64, timing bool) {
	m.mu.Lock()
	r, ok := m.labels[label]
	if !ok {
		r = &ring{values: make([]float64, m.window)}
		m.labels[label] = r
	}
	r.add(value)
	observers := m.observers
	m.mu.Unlock()

	for _, o := range observers {
		if d, ok := o.(DurationObserver); ok && timing {
			d.ObserveDuration(label, value)
			continue
		}
		o.ObserveSample(label, value)
	}
}

// Metrics returns the summary for label.
func (m *Monitor) Metrics(label string) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.labels[label]
	if !ok {
		return Stats{}
	}
	return r.stats()
}

// AllMetrics returns a summary for every label with samples.
func (m *Monitor) AllMetrics() map[string]Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Stats, len(m.labels))
	for label, r := range m.labels {
		out[label] = r.stats()
	}
	return out
}

// Clear drops all samples. Observers stay attached.
func (m *Monitor) Clear() {
	m.mu.Lock()
	m.labels = make(map[string]*ring)
	m.mu.Unlock()
}

// Observe attaches o to every future sample.
func (m *Monitor) Observe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Copy so Record can iterate a snapshot without holding the lock.
	observers := make([]Observer, 0, len(m.observers)+1)
	observers = append(observers, m.observers...)
	m.observers = append(observers, o)
}

// Cleanup detaches observers and drops all samples. The monitor remains
// usable afterwards.
func (m *Monitor) Cleanup() {
	m.mu.Lock()
	m.observers = nil
	m.labels = make(map[string]*ring)
	m.mu.Unlock()
}
