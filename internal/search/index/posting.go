package index

// Posting records how strongly one document matches one token. Tag matches
// are kept apart from the other fields because tag search is opt-in per
// query.
type Posting struct {
	DocID     string
	Order     int
	Weight    float64
	TagWeight float64
}

// Score returns the posting's contribution, counting tags only when asked.
func (p Posting) Score(withTags bool) float64 {
	if withTags {
		return p.Weight + p.TagWeight
	}
	return p.Weight
}

// PostingList is ordered by document order.
type PostingList []Posting

// Weights are the per-field multipliers applied while indexing.
type Weights struct {
	Title       float64
	Description float64
	Tags        float64
	Category    float64
	Content     float64
}

// DefaultWeights favours titles over descriptive metadata over body text.
func DefaultWeights() Weights {
	return Weights{
		Title:       3,
		Description: 2,
		Tags:        2,
		Category:    2,
		Content:     1,
	}
}
