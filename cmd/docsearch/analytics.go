package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/kafka"
)

// Run executes the analytics command. It consumes the analytics topic until
// interrupted or --for elapses, then prints the aggregate.
func (c *AnalyticsCmd) Run(deps *Dependencies) error {
	cfg := deps.Config.Kafka
	if len(c.Brokers) > 0 {
		cfg.Brokers = c.Brokers
	}
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured; pass --brokers or set kafka.brokers")
	}

	ctx := deps.Ctx
	if c.For > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.For)
		defer cancel()
	}

	agg := analytics.NewAggregator()
	consumer := kafka.NewConsumer(cfg, c.FromStart, agg.HandleMessage)
	slog.Info("tailing analytics events", "brokers", cfg.Brokers, "topic", cfg.Topic)
	if err := consumer.Start(ctx); err != nil {
		return err
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(agg.Stats())
}
