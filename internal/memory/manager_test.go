package memory_test

import (
	"errors"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/memory"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanup_RunsInOrderDespiteFailures(t *testing.T) {
	m := memory.New()
	var ran []string

	m.Add(func() error { ran = append(ran, "first"); return nil })
	m.Add(func() error { ran = append(ran, "failing"); return errors.New("boom") })
	m.Add(func() error { panic("worse") })
	m.Add(func() error { ran = append(ran, "last"); return nil })

	assert.NotPanics(t, m.Cleanup)
	assert.Equal(t, []string{"first", "failing", "last"}, ran)
	assert.Zero(t, m.Len())
}

func TestCleanup_EmptyRegistryAndRepeat(t *testing.T) {
	m := memory.New()
	calls := 0
	m.Add(func() error { calls++; return nil })

	m.Cleanup()
	m.Cleanup()

	assert.Equal(t, 1, calls, "registry is cleared after a pass")
}

func TestCleanup_TasksAddedDuringCleanupWaitForNextPass(t *testing.T) {
	m := memory.New()
	late := false
	m.Add(func() error {
		m.Add(func() error { late = true; return nil })
		return nil
	})

	m.Cleanup()
	assert.False(t, late)
	assert.Equal(t, 1, m.Len())

	m.Cleanup()
	assert.True(t, late)
}

func TestRemove(t *testing.T) {
	m := memory.New()
	ran := false
	id := m.Add(func() error { ran = true; return nil })

	assert.True(t, m.Remove(id))
	assert.False(t, m.Remove(id))
	m.Cleanup()
	assert.False(t, ran)
}

func TestCleanup_CountsFailures(t *testing.T) {
	mt := metrics.New(prometheus.NewRegistry())
	m := memory.New(memory.WithMetrics(mt))
	m.Add(func() error { return errors.New("a") })
	m.Add(func() error { panic("b") })
	m.Add(func() error { return nil })

	m.Cleanup()

	assert.Equal(t, 2.0, testutil.ToFloat64(mt.CleanupFailures))
}

func TestCheckUsage(t *testing.T) {
	tests := []struct {
		name  string
		stats memory.StatsFunc
		opts  []memory.Option
		want  bool
	}{
		{name: "no provider", want: true},
		{
			name:  "provider unavailable",
			stats: func() (memory.Stats, bool) { return memory.Stats{}, false },
			want:  true,
		},
		{
			name:  "below threshold",
			stats: func() (memory.Stats, bool) { return memory.Stats{Used: 50, Limit: 100}, true },
			want:  true,
		},
		{
			name:  "exactly at threshold",
			stats: func() (memory.Stats, bool) { return memory.Stats{Used: 90, Limit: 100}, true },
			want:  true,
		},
		{
			name:  "above threshold",
			stats: func() (memory.Stats, bool) { return memory.Stats{Used: 95, Limit: 100}, true },
			want:  false,
		},
		{
			name:  "custom threshold",
			stats: func() (memory.Stats, bool) { return memory.Stats{Used: 60, Limit: 100}, true },
			opts:  []memory.Option{memory.WithThreshold(0.5)},
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if tt.stats != nil {
				opts = append(opts, memory.WithStatsFunc(tt.stats))
			}
			assert.Equal(t, tt.want, memory.New(opts...).CheckUsage())
		})
	}
}

func TestStats(t *testing.T) {
	assert.Equal(t, memory.Stats{}, memory.New().Stats())

	m := memory.New(memory.WithRuntimeStats(1 << 40))
	s := m.Stats()
	require.NotZero(t, s.Used)
	assert.Equal(t, uint64(1<<40), s.Limit)
	assert.True(t, m.CheckUsage())
}
