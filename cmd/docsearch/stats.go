package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/storage"
)

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	store, err := storage.Open(deps.Ctx, deps.Config)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, capturedAt, err := aggregator.NewStore(store, deps.Config.Storage.KeyPrefix+"-analytics").LatestSnapshot(deps.Ctx)
	if err != nil {
		return err
	}
	if stats == nil {
		fmt.Fprintf(deps.Stdout, "No analytics snapshot in %s storage.\n", deps.Config.Storage.Backend)
		return nil
	}
	fmt.Fprintf(deps.Stdout, "Snapshot captured %s\n", capturedAt.Format(time.RFC3339))
	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
