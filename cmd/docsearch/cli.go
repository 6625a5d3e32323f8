package main

import (
	"context"
	"io"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

// Dependencies holds configuration and writers for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Config *config.Config
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" help:"Path to a YAML config file" type:"path"`
	Root    string `short:"r" help:"Documentation root (overrides docs.root)" type:"path"`
	Verbose bool   `short:"v" help:"Log at debug level"`

	Search    SearchCmd    `cmd:"" help:"Index the documentation tree and run a query"`
	Show      ShowCmd      `cmd:"" help:"Print a document's body"`
	Stats     StatsCmd     `cmd:"" help:"Print the last saved analytics snapshot"`
	Analytics AnalyticsCmd `cmd:"" help:"Aggregate analytics events from Kafka"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query string `arg:"" help:"Search query"`
	Tags  bool   `short:"t" help:"Also match document tags"`
	Fuzzy bool   `short:"f" help:"Allow misspelled terms"`
	Case  bool   `help:"Match case exactly"`
	Limit int    `short:"n" help:"Maximum results (0 uses the configured default)"`
	JSON  bool   `name:"json" help:"Print results as JSON"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID string `arg:"" help:"Document ID (path relative to the root, without extension)"`
}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct{}

// AnalyticsCmd is the "analytics" subcommand.
type AnalyticsCmd struct {
	Brokers   []string      `help:"Kafka brokers (overrides kafka.brokers)"`
	FromStart bool          `help:"Read the topic from its first offset"`
	For       time.Duration `help:"Stop after this long (0 runs until interrupted)"`
}
