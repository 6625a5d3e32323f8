// Package index builds the weighted inverted index behind document search.
// An Inverted is immutable once built; callers replace it wholesale when
// the document set changes.
package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/docs"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search/tokenizer"
)

// Inverted maps tokens to the documents containing them.
type Inverted struct {
	postings      map[string]PostingList
	tokens        []string
	docCount      int
	caseSensitive bool
}

// Build indexes records in order. A token found in several fields of the
// same document accumulates the weight of every occurrence.
func Build(records []docs.Record, content docs.ContentMap, w Weights, caseSensitive bool) *Inverted {
	acc := make(map[string]map[string]*Posting)
	add := func(order int, docID, text string, weight float64, tag bool) {
		if text == "" || weight == 0 {
			return
		}
		for _, tok := range tokenizer.Tokenize(text, caseSensitive) {
			byDoc, ok := acc[tok]
			if !ok {
				byDoc = make(map[string]*Posting)
				acc[tok] = byDoc
			}
			p, ok := byDoc[docID]
			if !ok {
				p = &Posting{DocID: docID, Order: order}
				byDoc[docID] = p
			}
			if tag {
				p.TagWeight += weight
			} else {
				p.Weight += weight
			}
		}
	}

	for i, r := range records {
		add(i, r.ID, r.Title, w.Title, false)
		add(i, r.ID, r.Description, w.Description, false)
		add(i, r.ID, r.Category, w.Category, false)
		for _, tag := range r.Tags {
			add(i, r.ID, tag, w.Tags, true)
		}
		add(i, r.ID, content[r.ID], w.Content, false)
	}

	idx := &Inverted{
		postings:      make(map[string]PostingList, len(acc)),
		tokens:        make([]string, 0, len(acc)),
		docCount:      len(records),
		caseSensitive: caseSensitive,
	}
	for tok, byDoc := range acc {
		list := make(PostingList, 0, len(byDoc))
		for _, p := range byDoc {
			list = append(list, *p)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Order < list[j].Order })
		idx.postings[tok] = list
		idx.tokens = append(idx.tokens, tok)
	}
	sort.Strings(idx.tokens)
	return idx
}

// Lookup returns the postings for an exact token. The slice must not be
// modified.
func (x *Inverted) Lookup(token string) PostingList {
	return x.postings[token]
}

// Tokens returns every indexed token in sorted order.
func (x *Inverted) Tokens() []string {
	return x.tokens
}

func (x *Inverted) DocCount() int {
	return x.docCount
}

func (x *Inverted) TermCount() int {
	return len(x.tokens)
}

func (x *Inverted) CaseSensitive() bool {
	return x.caseSensitive
}

// FuzzyMatch is an indexed token within edit distance of a query term.
type FuzzyMatch struct {
	Token    string
	Distance int
	Postings PostingList
}

// Fuzzy scans the vocabulary for tokens within maxEdits of term, excluding
// term itself. Matches come back in vocabulary order.
func (x *Inverted) Fuzzy(term string, maxEdits int) []FuzzyMatch {
	if maxEdits <= 0 {
		return nil
	}
	target := []rune(term)
	var matches []FuzzyMatch
	for _, tok := range x.tokens {
		if tok == term {
			continue
		}
		d := EditDistance(target, []rune(tok), maxEdits)
		if d > maxEdits {
			continue
		}
		matches = append(matches, FuzzyMatch{Token: tok, Distance: d, Postings: x.postings[tok]})
	}
	return matches
}
