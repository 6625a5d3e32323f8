package ranker_test

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search/ranker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_SumsAcrossTerms(t *testing.T) {
	got := ranker.Rank([]ranker.Contribution{
		{Term: "install", Multiplier: 1, Postings: index.PostingList{
			{DocID: "a", Order: 0, Weight: 1},
			{DocID: "b", Order: 1, Weight: 1},
		}},
		{Term: "cli", Multiplier: 1, Postings: index.PostingList{
			{DocID: "b", Order: 1, Weight: 1},
		}},
	}, false, 0)

	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].DocID, "matching more terms ranks higher")
	assert.Equal(t, 2.0, got[0].Score)
}

func TestRank_TiesKeepDocumentOrder(t *testing.T) {
	got := ranker.Rank([]ranker.Contribution{
		{Multiplier: 1, Postings: index.PostingList{
			{DocID: "c", Order: 2, Weight: 1},
			{DocID: "a", Order: 0, Weight: 1},
			{DocID: "b", Order: 1, Weight: 1},
		}},
	}, false, 0)

	ids := []string{got[0].DocID, got[1].DocID, got[2].DocID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestRank_TagsOptIn(t *testing.T) {
	c := []ranker.Contribution{{Multiplier: 1, Postings: index.PostingList{
		{DocID: "tagged", TagWeight: 2},
		{DocID: "titled", Order: 1, Weight: 3, TagWeight: 2},
	}}}

	without := ranker.Rank(c, false, 0)
	require.Len(t, without, 1)
	assert.Equal(t, "titled", without[0].DocID)
	assert.Equal(t, 3.0, without[0].Score)

	with := ranker.Rank(c, true, 0)
	require.Len(t, with, 2)
	assert.Equal(t, 5.0, with[0].Score)
}

func TestRank_MultiplierAndLimit(t *testing.T) {
	got := ranker.Rank([]ranker.Contribution{
		{Multiplier: 0.25, Postings: index.PostingList{{DocID: "fuzzy", Weight: 3}}},
		{Multiplier: 1, Postings: index.PostingList{{DocID: "exact", Order: 1, Weight: 1}}},
	}, false, 1)

	require.Len(t, got, 1)
	assert.Equal(t, "exact", got[0].DocID)
}
