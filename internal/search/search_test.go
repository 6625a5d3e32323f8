package search_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/docs"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocuments() ([]docs.Record, docs.ContentMap) {
	records := []docs.Record{
		{ID: "doc1", Title: "Getting Started", Description: "First steps", Tags: []string{"beginner"}},
		{ID: "doc2", Title: "Configuration", Description: "Settings reference", Category: "reference"},
		{ID: "doc3", Title: "Deployment", Category: "operations"},
	}
	content := docs.ContentMap{
		"doc1": "Install the tool, then read the configuration page.",
		"doc2": "Every configuration key explained.",
		"doc3": "Deploy with the CLI. See configuration for tuning.",
	}
	return records, content
}

func newIndex(t *testing.T, opts ...search.Option) *search.Index {
	t.Helper()
	idx := search.New(opts...)
	records, content := testDocuments()
	require.NoError(t, idx.Update(records, content))
	return idx
}

func ids(results []search.Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Document.ID)
	}
	return out
}

func TestSearch_RanksByWeightedScore(t *testing.T) {
	idx := newIndex(t)

	results := idx.Search("configuration", search.Options{})

	require.Equal(t, []string{"doc2", "doc1", "doc3"}, ids(results), "title match outranks body matches, ties keep document order")
	assert.Equal(t, 4.0, results[0].Score, "title 3 + body 1")
	assert.Equal(t, 1.0, results[1].Score)
	assert.Equal(t, "Configuration", results[0].Document.Title)
}

func TestSearch_MoreTermsRankHigher(t *testing.T) {
	idx := newIndex(t)

	results := idx.Search("install configuration", search.Options{})

	require.NotEmpty(t, results)
	assert.Equal(t, "doc2", results[0].Document.ID)
	assert.Equal(t, []string{"doc2", "doc1", "doc3"}, ids(results))
	assert.Equal(t, 2.0, results[1].Score, "doc1 matches both terms once")
}

func TestSearch_StopWordsOnlyReturnsEmpty(t *testing.T) {
	idx := newIndex(t)

	results := idx.Search("the and is", search.Options{})

	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Empty(t, idx.Search("   ", search.Options{}))
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx := search.New()

	assert.Empty(t, idx.Search("anything", search.Options{FuzzySearch: true}))
}

func TestSearch_CachesIdenticalQueries(t *testing.T) {
	idx := newIndex(t)
	opts := search.Options{MaxResults: 5}

	first := idx.Search("configuration", opts)
	second := idx.Search("configuration", opts)

	assert.Equal(t, first, second)
	stats := idx.Stats()
	assert.EqualValues(t, 1, stats.CacheHits)
	assert.EqualValues(t, 1, stats.CacheMisses)
	assert.Equal(t, 1, stats.CacheEntries)

	idx.Search("configuration", search.Options{MaxResults: 1})
	assert.EqualValues(t, 2, idx.Stats().CacheMisses, "options are part of the cache key")
}

func TestSearch_UpdateInvalidatesCache(t *testing.T) {
	idx := newIndex(t)
	before := idx.Search("deployment", search.Options{})
	require.Equal(t, []string{"doc3"}, ids(before))

	require.NoError(t, idx.Update([]docs.Record{
		{ID: "doc4", Title: "Deployment Checklist"},
		{ID: "doc3", Title: "Deployment"},
	}, nil))
	after := idx.Search("deployment", search.Options{})

	assert.Equal(t, []string{"doc4", "doc3"}, ids(after))
	stats := idx.Stats()
	assert.EqualValues(t, 2, stats.CacheMisses, "query recomputed after rebuild")
	assert.EqualValues(t, 2, stats.Generation)
	assert.Equal(t, 2, stats.Documents)
}

func TestSearch_TagsOnlyWhenEnabled(t *testing.T) {
	idx := newIndex(t)

	assert.Empty(t, idx.Search("beginner", search.Options{SearchInTags: false}))

	results := idx.Search("beginner", search.Options{SearchInTags: true})
	assert.Equal(t, []string{"doc1"}, ids(results))
}

func TestSearch_Fuzzy(t *testing.T) {
	idx := newIndex(t)

	assert.Empty(t, idx.Search("configureation", search.Options{FuzzySearch: false}))

	results := idx.Search("configureation", search.Options{FuzzySearch: true})
	require.NotEmpty(t, results)
	assert.Equal(t, "doc2", results[0].Document.ID)

	exact := idx.Search("configuration", search.Options{})
	assert.Less(t, results[0].Score, exact[0].Score, "fuzzy matches are penalized")
}

func TestSearch_FuzzyOnlyForTermsWithoutExactMatch(t *testing.T) {
	records := []docs.Record{
		{ID: "a", Title: "cache"},
		{ID: "b", Title: "caches"},
	}
	idx := search.New()
	require.NoError(t, idx.Update(records, nil))

	results := idx.Search("cache", search.Options{FuzzySearch: true})

	assert.Equal(t, []string{"a"}, ids(results))
}

func TestSearch_TagOnlyTermFallsBackToFuzzyWhenTagsOff(t *testing.T) {
	records := []docs.Record{
		{ID: "a", Title: "Guide"},
		{ID: "b", Title: "Overview", Tags: []string{"guides"}},
	}
	idx := search.New()
	require.NoError(t, idx.Update(records, nil))

	assert.Empty(t, idx.Search("guides", search.Options{}))
	assert.Equal(t, []string{"a"}, ids(idx.Search("guides", search.Options{FuzzySearch: true})))
	assert.Equal(t, []string{"b"}, ids(idx.Search("guides", search.Options{FuzzySearch: true, SearchInTags: true})))
}

func TestSearch_MaxResultsTruncatesWithoutReordering(t *testing.T) {
	idx := newIndex(t)

	full := idx.Search("configuration", search.Options{})
	top := idx.Search("configuration", search.Options{MaxResults: 1})

	require.Len(t, full, 3)
	require.Len(t, top, 1)
	assert.Equal(t, full[0], top[0])
}

func TestSearch_DefaultMaxResults(t *testing.T) {
	records := make([]docs.Record, 0, 15)
	for i := 0; i < 15; i++ {
		records = append(records, docs.Record{ID: fmt.Sprintf("d%02d", i), Title: "guide"})
	}
	idx := search.New()
	require.NoError(t, idx.Update(records, nil))

	results := idx.Search("guide", search.Options{})

	require.Len(t, results, search.DefaultMaxResults)
	assert.Equal(t, "d00", results[0].Document.ID)
	assert.Equal(t, "d09", results[9].Document.ID)
}

func TestSearch_CaseSensitive(t *testing.T) {
	idx := search.New()
	require.NoError(t, idx.Update([]docs.Record{
		{ID: "go", Title: "Go Modules"},
		{ID: "verb", Title: "go further"},
	}, nil))

	assert.Equal(t, []string{"go", "verb"}, ids(idx.Search("GO", search.Options{})))
	assert.Equal(t, []string{"go"}, ids(idx.Search("Go", search.Options{CaseSensitive: true})))
	assert.Empty(t, idx.Search("GO", search.Options{CaseSensitive: true}))
}

func TestUpdate_RejectsInvalidRecordsAndKeepsIndex(t *testing.T) {
	idx := newIndex(t)

	err := idx.Update([]docs.Record{{ID: "x"}, {ID: "x"}}, nil)

	require.Error(t, err)
	assert.Equal(t, 3, idx.Stats().Documents)
	assert.NotEmpty(t, idx.Search("deployment", search.Options{}))
}

func TestSearch_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	idx := newIndex(t, search.WithMetrics(m))

	idx.Search("configuration", search.Options{})
	idx.Search("configuration", search.Options{})
	idx.Search("the", search.Options{})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueryCacheHitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueryCacheMissTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("empty_query")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexRebuildsTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IndexedDocuments))
}

func TestSearch_ConcurrentUpdateAndSearch(t *testing.T) {
	idx := newIndex(t)
	records, content := testDocuments()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				res := idx.Search("configuration", search.Options{})
				// Either index state yields all three documents.
				assert.Len(t, res, 3)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				assert.NoError(t, idx.Update(records, content))
			}
		}()
	}
	wg.Wait()
}

func TestOverrides_Merge(t *testing.T) {
	yes, max := true, 3
	defaults := search.Options{FuzzySearch: true, MaxResults: 20}

	got := search.Overrides{SearchInTags: &yes, MaxResults: &max}.Merge(defaults)
	assert.Equal(t, search.Options{SearchInTags: true, FuzzySearch: true, MaxResults: 3}, got)

	no := false
	got = search.Overrides{FuzzySearch: &no}.Merge(defaults)
	assert.False(t, got.FuzzySearch, "explicit false beats default true")
	assert.Equal(t, 20, got.MaxResults)

	zero := 0
	got = search.Overrides{MaxResults: &zero}.Merge(search.Options{})
	assert.Equal(t, search.DefaultMaxResults, got.MaxResults)
	assert.Equal(t, search.DefaultMaxResults, search.DefaultOptions().MaxResults)
}
