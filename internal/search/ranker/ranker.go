// Package ranker sums per-term contributions into document scores and
// orders them for display.
package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search/index"
)

// ScoredDoc is one ranked document. Order is the document's position in the
// indexed set and breaks score ties.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Order int     `json:"-"`
	Score float64 `json:"score"`
}

// Contribution is a postings list matched by one query term, scaled by
// Multiplier (1 for exact matches, less for fuzzy ones).
type Contribution struct {
	Term       string
	Postings   index.PostingList
	Multiplier float64
}

// Rank adds up every contribution per document. Documents with a zero
// total are dropped. Results are sorted by score descending, then by
// document order, and truncated to limit when limit > 0.
func Rank(contributions []Contribution, withTags bool, limit int) []ScoredDoc {
	scores := make(map[string]*ScoredDoc)
	for _, c := range contributions {
		for _, p := range c.Postings {
			s := p.Score(withTags) * c.Multiplier
			if s == 0 {
				continue
			}
			doc, ok := scores[p.DocID]
			if !ok {
				doc = &ScoredDoc{DocID: p.DocID, Order: p.Order}
				scores[p.DocID] = doc
			}
			doc.Score += s
		}
	}
	result := make([]ScoredDoc, 0, len(scores))
	for _, doc := range scores {
		doc.Score = math.Round(doc.Score*10000) / 10000
		result = append(result, *doc)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Order < result[j].Order
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
