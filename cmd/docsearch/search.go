package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/app"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search"
)

// openIndex builds the application and indexes the documentation root.
func openIndex(deps *Dependencies) (*app.App, error) {
	a, err := app.New(deps.Ctx, deps.Config)
	if err != nil {
		return nil, err
	}
	if err := a.Search.Refresh(deps.Ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("indexing %s: %w", deps.Config.Docs.Root, err)
	}
	return a, nil
}

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	if strings.TrimSpace(c.Query) == "" {
		return fmt.Errorf("query must not be empty")
	}
	a, err := openIndex(deps)
	if err != nil {
		return err
	}
	defer a.Close()

	results := a.Search.Search(deps.Ctx, c.Query, c.overrides())

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 0 {
		fmt.Fprintf(deps.Stdout, "No documents match %q.\n", c.Query)
		return nil
	}
	tw := tabwriter.NewWriter(deps.Stdout, 0, 4, 2, ' ', 0)
	for _, r := range results {
		fmt.Fprintf(tw, "%.1f\t%s\t%s\n", r.Score, r.Document.ID, r.Document.Title)
	}
	return tw.Flush()
}

// overrides sets only the options given on the command line so the
// configured defaults apply otherwise.
func (c *SearchCmd) overrides() search.Overrides {
	var o search.Overrides
	on := true
	if c.Tags {
		o.SearchInTags = &on
	}
	if c.Fuzzy {
		o.FuzzySearch = &on
	}
	if c.Case {
		o.CaseSensitive = &on
	}
	if c.Limit > 0 {
		limit := c.Limit
		o.MaxResults = &limit
	}
	return o
}
