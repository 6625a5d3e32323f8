package search

import "fmt"

// DefaultMaxResults caps a result list when the caller does not.
const DefaultMaxResults = 10

// Options tune a single search.
type Options struct {
	SearchInTags  bool `json:"searchInTags"`
	FuzzySearch   bool `json:"fuzzySearch"`
	CaseSensitive bool `json:"caseSensitive"`
	// MaxResults <= 0 means DefaultMaxResults.
	MaxResults int `json:"maxResults"`
}

// DefaultOptions returns the options used when nothing is specified.
func DefaultOptions() Options {
	return Options{MaxResults: DefaultMaxResults}
}

// Overrides carries caller-supplied options where nil means "not given".
type Overrides struct {
	SearchInTags  *bool `json:"searchInTags,omitempty"`
	FuzzySearch   *bool `json:"fuzzySearch,omitempty"`
	CaseSensitive *bool `json:"caseSensitive,omitempty"`
	MaxResults    *int  `json:"maxResults,omitempty"`
}

// Merge resolves options field by field: a value present in o wins over
// the matching field of defaults. A non-positive MaxResults in either
// falls through to DefaultMaxResults.
func (o Overrides) Merge(defaults Options) Options {
	out := defaults
	if o.SearchInTags != nil {
		out.SearchInTags = *o.SearchInTags
	}
	if o.FuzzySearch != nil {
		out.FuzzySearch = *o.FuzzySearch
	}
	if o.CaseSensitive != nil {
		out.CaseSensitive = *o.CaseSensitive
	}
	if o.MaxResults != nil {
		out.MaxResults = *o.MaxResults
	}
	return out.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	return o
}

// key serializes o for the query cache.
func (o Options) key() string {
	return fmt.Sprintf("tags=%t|fuzzy=%t|case=%t|max=%d", o.SearchInTags, o.FuzzySearch, o.CaseSensitive, o.MaxResults)
}
