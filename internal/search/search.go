// Package search maintains the document search index: a weighted inverted
// index rebuilt in full whenever the document set changes, exact and fuzzy
// term lookup, additive scoring, and a bounded cache of query results that
// is invalidated on every rebuild.
package search

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/docs"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search/ranker"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/cespare/xxhash/v2"
)

const (
	defaultQueryCacheSize = 100
	defaultFuzzyPenalty   = 0.5
)

// Result is a matched document and its score.
type Result struct {
	Document docs.Record `json:"document"`
	Score    float64     `json:"score"`
}

// Stats describes the current index and query cache.
type Stats struct {
	Documents    int    `json:"documents"`
	Terms        int    `json:"terms"`
	Generation   uint64 `json:"generation"`
	CacheEntries int    `json:"cache_entries"`
	CacheHits    int64  `json:"cache_hits"`
	CacheMisses  int64  `json:"cache_misses"`
}

type cachedResults struct {
	key        string
	generation uint64
	results    []Result
}

// Index is safe for concurrent use. Update swaps in a fully built index
// under the write lock, so a Search sees either the old or the new one.
type Index struct {
	mu         sync.RWMutex
	folded     *index.Inverted
	exact      *index.Inverted
	records    map[string]docs.Record
	generation uint64

	queries *cache.LRU[uint64, cachedResults]
	hits    atomic.Int64
	misses  atomic.Int64

	weights      index.Weights
	fuzzyPenalty float64
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// Option customizes New.
type Option func(*Index)

// WithWeights replaces index.DefaultWeights.
func WithWeights(w index.Weights) Option {
	return func(x *Index) { x.weights = w }
}

// WithQueryCacheSize bounds the number of cached query results.
func WithQueryCacheSize(n int) Option {
	return func(x *Index) { x.queries = cache.NewLRU[uint64, cachedResults](n) }
}

// WithFuzzyPenalty scales fuzzy contributions; it is divided by the edit
// distance of the match.
func WithFuzzyPenalty(p float64) Option {
	return func(x *Index) {
		if p > 0 {
			x.fuzzyPenalty = p
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(x *Index) { x.metrics = m }
}

// New returns an empty index. Searching it yields no results until Update
// is called.
func New(opts ...Option) *Index {
	x := &Index{
		folded:       index.Build(nil, nil, index.DefaultWeights(), false),
		exact:        index.Build(nil, nil, index.DefaultWeights(), true),
		records:      map[string]docs.Record{},
		queries:      cache.NewLRU[uint64, cachedResults](defaultQueryCacheSize),
		weights:      index.DefaultWeights(),
		fuzzyPenalty: defaultFuzzyPenalty,
		logger:       slog.Default().With("component", "search-index"),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Update rebuilds the index from records and their loaded content, then
// drops every cached query result. Invalid or duplicate records are
// rejected and the previous index is kept.
func (x *Index) Update(records []docs.Record, content docs.ContentMap) error {
	normalized, err := docs.Normalize(records)
	if err != nil {
		return err
	}
	folded := index.Build(normalized, content, x.weights, false)
	exact := index.Build(normalized, content, x.weights, true)
	byID := make(map[string]docs.Record, len(normalized))
	for _, r := range normalized {
		byID[r.ID] = r
	}

	x.mu.Lock()
	x.folded = folded
	x.exact = exact
	x.records = byID
	x.generation++
	x.queries.Clear()
	gen := x.generation
	x.mu.Unlock()

	if x.metrics != nil {
		x.metrics.IndexRebuildsTotal.Inc()
		x.metrics.IndexedDocuments.Set(float64(len(normalized)))
	}
	x.logger.Info("search index rebuilt",
		"documents", len(normalized),
		"terms", folded.TermCount(),
		"generation", gen,
	)
	return nil
}

// Search returns documents matching query, best first. A query made only of
// stop-words returns an empty slice. Results are shared with the cache and
// must be treated as read-only.
func (x *Index) Search(query string, opts Options) []Result {
	results, _ := x.SearchCached(query, opts)
	return results
}

// SearchCached is Search that also reports whether the results came from
// the query cache.
func (x *Index) SearchCached(query string, opts Options) ([]Result, bool) {
	opts = opts.withDefaults()
	terms := tokenizer.Unique(tokenizer.Tokenize(query, opts.CaseSensitive))
	if len(terms) == 0 {
		x.observe("empty_query", 0)
		return []Result{}, false
	}

	key := strings.Join(terms, "\x1f") + "\x00" + opts.key()
	hash := xxhash.Sum64String(key)

	x.mu.RLock()
	gen := x.generation
	if cached, ok := x.queries.Get(hash); ok && cached.key == key && cached.generation == gen {
		x.mu.RUnlock()
		x.countCache(true)
		x.observe("hit", len(cached.results))
		return cached.results, true
	}
	inv := x.folded
	if opts.CaseSensitive {
		inv = x.exact
	}
	records := x.records
	x.mu.RUnlock()
	x.countCache(false)

	results := x.execute(inv, records, terms, opts)

	x.mu.Lock()
	// A rebuild that happened meanwhile already purged the cache; do not
	// reinsert results computed against the old index.
	if x.generation == gen {
		x.queries.Set(hash, cachedResults{key: key, generation: gen, results: results})
	}
	x.mu.Unlock()

	if len(results) == 0 {
		x.observe("zero_result", 0)
	} else {
		x.observe("miss", len(results))
	}
	return results, false
}

func (x *Index) execute(inv *index.Inverted, records map[string]docs.Record, terms []string, opts Options) []Result {
	contributions := make([]ranker.Contribution, 0, len(terms))
	for _, term := range terms {
		if postings := inv.Lookup(term); scores(postings, opts.SearchInTags) {
			contributions = append(contributions, ranker.Contribution{Term: term, Postings: postings, Multiplier: 1})
			continue
		}
		if !opts.FuzzySearch {
			continue
		}
		for _, m := range inv.Fuzzy(term, index.MaxEdits(term)) {
			contributions = append(contributions, ranker.Contribution{
				Term:       m.Token,
				Postings:   m.Postings,
				Multiplier: x.fuzzyPenalty / float64(m.Distance),
			})
		}
	}

	ranked := ranker.Rank(contributions, opts.SearchInTags, opts.MaxResults)
	results := make([]Result, 0, len(ranked))
	for _, doc := range ranked {
		results = append(results, Result{Document: records[doc.DocID], Score: doc.Score})
	}
	return results
}

// scores reports whether any posting contributes under the given tag setting.
// A term found only in tags is no exact match while tag search is off.
func scores(postings index.PostingList, withTags bool) bool {
	for _, p := range postings {
		if p.Score(withTags) > 0 {
			return true
		}
	}
	return false
}

// Stats reports index size and query cache effectiveness.
func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return Stats{
		Documents:    x.folded.DocCount(),
		Terms:        x.folded.TermCount(),
		Generation:   x.generation,
		CacheEntries: x.queries.Len(),
		CacheHits:    x.hits.Load(),
		CacheMisses:  x.misses.Load(),
	}
}

// Document returns the indexed record for id.
func (x *Index) Document(id string) (docs.Record, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	r, ok := x.records[id]
	return r, ok
}

func (x *Index) countCache(hit bool) {
	if hit {
		x.hits.Add(1)
	} else {
		x.misses.Add(1)
	}
	if x.metrics == nil {
		return
	}
	if hit {
		x.metrics.QueryCacheHitsTotal.Inc()
	} else {
		x.metrics.QueryCacheMissTotal.Inc()
	}
}

func (x *Index) observe(resultType string, n int) {
	if x.metrics == nil {
		return
	}
	x.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	x.metrics.SearchResultsCount.Observe(float64(n))
}
