package main

import (
	"fmt"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	a, err := openIndex(deps)
	if err != nil {
		return err
	}
	defer a.Close()

	record, body, err := a.Search.Document(deps.Ctx, c.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "# %s\n\n", record.Title)
	if record.Description != "" {
		fmt.Fprintf(deps.Stdout, "%s\n\n", record.Description)
	}
	fmt.Fprint(deps.Stdout, body)
	return nil
}
