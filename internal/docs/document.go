// Package docs defines the document metadata the viewer indexes and the
// single validation pass applied when documents enter the system.
package docs

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

// Record is a document's metadata. Only ID is required; the other fields
// are optional and use their zero value when absent.
type Record struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Tags        []string `json:"tags,omitempty" yaml:"tags"`
	Category    string   `json:"category,omitempty" yaml:"category"`
	Order       *int     `json:"order,omitempty" yaml:"order"`
}

// ContentMap maps a document ID to its loaded body text.
type ContentMap map[string]string

// Validate reports whether r can be indexed.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: empty id", apperrors.ErrInvalidDocument)
	}
	return nil
}

// Normalized returns a copy with whitespace trimmed and empty tags dropped.
func (r Record) Normalized() Record {
	out := Record{
		ID:          strings.TrimSpace(r.ID),
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		Category:    strings.TrimSpace(r.Category),
	}
	if r.Order != nil {
		order := *r.Order
		out.Order = &order
	}
	for _, tag := range r.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out.Tags = append(out.Tags, tag)
		}
	}
	if out.Title == "" {
		out.Title = out.ID
	}
	return out
}

// Normalize validates and normalizes records, preserving their order. It
// fails on the first invalid record or repeated ID.
func Normalize(records []Record) ([]Record, error) {
	out := make([]Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		r = r.Normalized()
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrDuplicateDocument, r.ID)
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}
