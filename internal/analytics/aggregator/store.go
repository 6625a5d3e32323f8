// Package aggregator persists snapshots of aggregated analytics in the
// durable key-value store so the latest figures survive a restart.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/storage"
)

// DefaultKey is the store key holding the latest snapshot.
const DefaultKey = "docsearch-analytics-snapshot"

type snapshot struct {
	CapturedAt time.Time                 `json:"captured_at"`
	Stats      analytics.AggregatedStats `json:"stats"`
}

// Store saves and loads the latest snapshot under a single key.
type Store struct {
	store  storage.Store
	key    string
	logger *slog.Logger
	now    func() time.Time
}

// NewStore uses DefaultKey when key is empty.
func NewStore(store storage.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		store:  store,
		key:    key,
		logger: slog.Default().With("component", "analytics-store"),
		now:    time.Now,
	}
}

// SaveSnapshot replaces the stored snapshot with stats.
func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) error {
	data, err := json.Marshal(snapshot{CapturedAt: s.now().UTC(), Stats: stats})
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	if err := s.store.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	s.logger.Debug("analytics snapshot saved",
		"total_searches", stats.TotalSearches,
		"index_builds", stats.IndexBuilds,
	)
	return nil
}

// LatestSnapshot loads the stored snapshot and its capture time. The stats
// are nil when no snapshot has been saved.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.AggregatedStats, time.Time, error) {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading analytics snapshot: %w", err)
	}
	if !ok {
		return nil, time.Time{}, nil
	}
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, time.Time{}, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &snap.Stats, snap.CapturedAt, nil
}

// StartPeriodicSave snapshots agg every interval until ctx is cancelled,
// then saves once more. done is closed after the final save.
func (s *Store) StartPeriodicSave(ctx context.Context, agg *analytics.Aggregator, interval time.Duration) (done <-chan struct{}) {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.SaveSnapshot(ctx, agg.Stats()); err != nil {
					s.logger.Error("periodic snapshot failed", "error", err)
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := s.SaveSnapshot(shutdownCtx, agg.Stats()); err != nil {
					s.logger.Error("final snapshot failed", "error", err)
				}
				return
			}
		}
	}()
	s.logger.Info("periodic snapshot started", "interval", interval)
	return ch
}
