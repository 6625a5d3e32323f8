package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search/ranker"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/storage"
)

func newIndex(b *testing.B, n int, opts ...search.Option) *search.Index {
	b.Helper()
	records, content := corpus(n)
	idx := search.New(opts...)
	if err := idx.Update(records, content); err != nil {
		b.Fatal(err)
	}
	return idx
}

// BenchmarkSearchUncached rotates queries through a one-entry query cache
// so every iteration tokenizes, looks up and ranks.
func BenchmarkSearchUncached(b *testing.B) {
	queries := []struct {
		name string
		opts search.Options
	}{
		{"exact", search.DefaultOptions()},
		{"tags", search.Options{SearchInTags: true, MaxResults: 10}},
		{"fuzzy", search.Options{FuzzySearch: true, MaxResults: 10}},
		{"case_sensitive", search.Options{CaseSensitive: true, MaxResults: 10}},
	}
	idx := newIndex(b, 10000, search.WithQueryCacheSize(1))
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = idx.Search(fmt.Sprintf("%s configuraton", topics[i%len(topics)]), q.opts)
			}
		})
	}
}

func BenchmarkSearchCached(b *testing.B) {
	idx := newIndex(b, 10000)
	opts := search.DefaultOptions()
	idx.Search("deployment guide", opts)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Search("deployment guide", opts)
	}
}

func BenchmarkSearchParallel(b *testing.B) {
	idx := newIndex(b, 10000)
	opts := search.DefaultOptions()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = idx.Search(topics[i%len(topics)], opts)
			i++
		}
	})
}

func BenchmarkRank(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("postings_%d", n), func(b *testing.B) {
			pl := make(index.PostingList, n)
			for i := range pl {
				pl[i] = index.Posting{DocID: fmt.Sprintf("doc-%d", i), Order: i, Weight: float64(i%5 + 1)}
			}
			contributions := []ranker.Contribution{
				{Term: "search", Postings: pl, Multiplier: 1},
				{Term: "serch", Postings: pl[:n/2], Multiplier: 0.5},
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = ranker.Rank(contributions, false, 10)
			}
		})
	}
}

func BenchmarkLRU(b *testing.B) {
	c := cache.NewLRU[string, string](1000)
	keys := make([]string, 2000)
	for i := range keys {
		keys[i] = fmt.Sprintf("doc-%d", i)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i%len(keys)]
		if _, ok := c.Get(k); !ok {
			c.Set(k, k)
		}
	}
}

// BenchmarkPersistentSet includes the snapshot write to the in-memory store.
func BenchmarkPersistentSet(b *testing.B) {
	ctx := context.Background()
	p := cache.NewPersistent[string](ctx, storage.NewMemory(), "bench", 100)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Set(ctx, fmt.Sprintf("doc-%d", i%200), "body")
	}
}
