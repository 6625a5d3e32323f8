package searchmgr_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/docs"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/perf"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searchmgr"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	mu      sync.Mutex
	records []docs.Record
	bodies  map[string]string
	listErr error
}

func (s *staticSource) List(context.Context) ([]docs.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records, s.listErr
}

func (s *staticSource) Content(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.bodies[id]
	if !ok {
		return "", apperrors.ErrDocumentNotFound
	}
	return body, nil
}

type recorder struct {
	mu     sync.Mutex
	events []any
}

func (r *recorder) Track(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) last() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func setup(t *testing.T, opts ...searchmgr.Option) (*searchmgr.Manager, *staticSource) {
	t.Helper()
	src := &staticSource{
		records: []docs.Record{
			{ID: "intro", Title: "Getting Started", Tags: []string{"beginner"}},
			{ID: "config", Title: "Configuration"},
		},
		bodies: map[string]string{
			"intro":  "Install the CLI.",
			"config": "Every configuration option.",
		},
	}
	bodies := cache.NewPersistent[string](context.Background(), storage.NewMemory(), "docs", 10)
	m := searchmgr.New(loader.New(src, bodies), search.New(), opts...)
	require.NoError(t, m.Refresh(context.Background()))
	return m, src
}

func TestSearch_UsesDefaultsAndOverrides(t *testing.T) {
	m, _ := setup(t, searchmgr.WithDefaults(search.Options{SearchInTags: true, MaxResults: 5}))

	results := m.Search(context.Background(), "beginner", search.Overrides{})
	require.Len(t, results, 1)
	assert.Equal(t, "intro", results[0].Document.ID)

	off := false
	assert.Empty(t, m.Search(context.Background(), "beginner", search.Overrides{SearchInTags: &off}))
	assert.Equal(t, 5, m.Defaults().MaxResults)
}

func TestSearch_TracksEvents(t *testing.T) {
	rec := &recorder{}
	mon := perf.New()
	m, _ := setup(t, searchmgr.WithTracker(rec), searchmgr.WithMonitor(mon))
	ctx := logger.WithRequestID(context.Background(), "req-1")

	m.Search(ctx, "configuration", search.Overrides{})
	first, ok := rec.last().(analytics.SearchEvent)
	require.True(t, ok)
	assert.Equal(t, analytics.EventSearch, first.Type)
	assert.Equal(t, 1, first.Returned)
	assert.False(t, first.CacheHit)
	assert.Equal(t, "req-1", first.RequestID)

	m.Search(ctx, "configuration", search.Overrides{})
	second := rec.last().(analytics.SearchEvent)
	assert.True(t, second.CacheHit)

	m.Search(ctx, "nothing-matches", search.Overrides{})
	assert.Equal(t, analytics.EventZeroResult, rec.last().(analytics.SearchEvent).Type)

	assert.Equal(t, 3, mon.Metrics("search").Count)
	assert.Equal(t, 1, mon.Metrics("index-build").Count)
}

func TestRefresh_PicksUpNewDocuments(t *testing.T) {
	rec := &recorder{}
	m, src := setup(t, searchmgr.WithTracker(rec))
	assert.Empty(t, m.Search(context.Background(), "deployment", search.Overrides{}))

	src.mu.Lock()
	src.records = append(src.records, docs.Record{ID: "deploy", Title: "Deployment"})
	src.mu.Unlock()
	require.NoError(t, m.Refresh(context.Background()))

	results := m.Search(context.Background(), "deployment", search.Overrides{})
	require.Len(t, results, 1)
	stats := m.Stats()
	assert.Equal(t, 3, stats.Index.Documents)
	assert.EqualValues(t, 2, stats.Index.Generation)
	assert.False(t, stats.LastRefresh.IsZero())
	assert.Equal(t, 2, stats.CachedDocs, "deploy has no body")
}

func TestRefresh_FailureKeepsIndex(t *testing.T) {
	rec := &recorder{}
	m, src := setup(t, searchmgr.WithTracker(rec))

	src.mu.Lock()
	src.listErr = errors.New("permission denied")
	src.mu.Unlock()
	err := m.Refresh(context.Background())

	require.Error(t, err)
	event, ok := rec.last().(analytics.IndexEvent)
	require.True(t, ok)
	assert.Equal(t, analytics.EventIndexError, event.Type)
	assert.Contains(t, event.Error, "permission denied")
	assert.NotEmpty(t, m.Search(context.Background(), "configuration", search.Overrides{}))
}

func TestDocument(t *testing.T) {
	m, _ := setup(t)

	record, body, err := m.Document(context.Background(), "config")
	require.NoError(t, err)
	assert.Equal(t, "Configuration", record.Title)
	assert.Equal(t, "Every configuration option.", body)

	_, _, err = m.Document(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
}

func TestRefresh_IndexesEditedBodies(t *testing.T) {
	m, src := setup(t)
	assert.Empty(t, m.Search(context.Background(), "kubernetes", search.Overrides{}))

	src.mu.Lock()
	src.bodies["config"] = "rewritten kubernetes section"
	src.mu.Unlock()
	require.NoError(t, m.Refresh(context.Background()))

	results := m.Search(context.Background(), "kubernetes", search.Overrides{})
	require.Len(t, results, 1)
	assert.Equal(t, "config", results[0].Document.ID)
	_, body, err := m.Document(context.Background(), "config")
	require.NoError(t, err)
	assert.Equal(t, "rewritten kubernetes section", body)
}
