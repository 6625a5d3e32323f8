package index_test

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/docs"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() ([]docs.Record, docs.ContentMap) {
	records := []docs.Record{
		{ID: "doc1", Title: "Getting Started", Description: "Install guide", Tags: []string{"beginner"}},
		{ID: "doc2", Title: "Configuration", Category: "guide"},
		{ID: "doc3", Title: "API Reference"},
	}
	content := docs.ContentMap{
		"doc1": "Install the CLI and run it.",
		"doc3": "Configuration options are listed here. Install first.",
	}
	return records, content
}

func TestBuild_AccumulatesFieldWeights(t *testing.T) {
	records, content := sampleRecords()
	idx := index.Build(records, content, index.DefaultWeights(), false)

	install := idx.Lookup("install")
	require.Len(t, install, 2)
	assert.Equal(t, "doc1", install[0].DocID)
	assert.Equal(t, 2.0+1.0, install[0].Weight, "description + body")
	assert.Equal(t, "doc3", install[1].DocID)
	assert.Equal(t, 1.0, install[1].Weight)

	guide := idx.Lookup("guide")
	require.Len(t, guide, 2)
	assert.Equal(t, 2.0, guide[0].Weight, "doc1 description")
	assert.Equal(t, 2.0, guide[1].Weight, "doc2 category")

	assert.Equal(t, 3, idx.DocCount())
	assert.Nil(t, idx.Lookup("the"), "stop words are never indexed")
}

func TestBuild_TagsKeptSeparately(t *testing.T) {
	records, content := sampleRecords()
	idx := index.Build(records, content, index.DefaultWeights(), false)

	p := idx.Lookup("beginner")
	require.Len(t, p, 1)
	assert.Zero(t, p[0].Weight)
	assert.Equal(t, 2.0, p[0].TagWeight)
	assert.Zero(t, p[0].Score(false))
	assert.Equal(t, 2.0, p[0].Score(true))
}

func TestBuild_CaseSensitive(t *testing.T) {
	records, content := sampleRecords()
	folded := index.Build(records, content, index.DefaultWeights(), false)
	exact := index.Build(records, content, index.DefaultWeights(), true)

	assert.NotEmpty(t, folded.Lookup("api"))
	assert.Empty(t, folded.Lookup("API"))
	assert.NotEmpty(t, exact.Lookup("API"))
	assert.Empty(t, exact.Lookup("api"))
	assert.True(t, exact.CaseSensitive())
}

func TestBuild_TokensSorted(t *testing.T) {
	idx := index.Build([]docs.Record{{ID: "a", Title: "zeta alpha mid"}}, nil, index.DefaultWeights(), false)

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, idx.Tokens())
	assert.Equal(t, 3, idx.TermCount())
}

func TestFuzzy(t *testing.T) {
	records, content := sampleRecords()
	idx := index.Build(records, content, index.DefaultWeights(), false)

	matches := idx.Fuzzy("configureation", 2)
	require.Len(t, matches, 1)
	assert.Equal(t, "configuration", matches[0].Token)
	assert.Equal(t, 1, matches[0].Distance)
	assert.Len(t, matches[0].Postings, 2)

	assert.Empty(t, idx.Fuzzy("zzzzzzzz", 2))
	assert.Nil(t, idx.Fuzzy("install", 0))
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		max  int
		want int
	}{
		{"kitten", "sitting", 5, 3},
		{"configuration", "configureation", 2, 1},
		{"same", "same", 2, 0},
		{"", "abc", 5, 3},
		{"abc", "", 5, 3},
		{"short", "muchlongerword", 2, 3},
		{"abcdef", "uvwxyz", 2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, index.EditDistance([]rune(tt.a), []rune(tt.b), tt.max))
		})
	}
}

func TestMaxEdits(t *testing.T) {
	assert.Equal(t, 1, index.MaxEdits("cli"))
	assert.Equal(t, 1, index.MaxEdits("docs"))
	assert.Equal(t, 2, index.MaxEdits("install"))
}
