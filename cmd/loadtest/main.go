package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the documentation search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	fuzzyEvery := flag.Int("fuzzy-every", 5, "send every Nth search with fuzzy=true (0 disables)")
	viewEvery := flag.Int("view-every", 3, "fetch the top hit of every Nth search (0 disables)")
	queries := flag.String("queries", strings.Join(defaultQueries, ","), "comma-separated search queries")
	flag.Parse()

	cfg := Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Concurrency: *concurrency,
		Duration:    *duration,
		Queries:     strings.Split(*queries, ","),
		FuzzyEvery:  *fuzzyEvery,
		ViewEvery:   *viewEvery,
	}

	fmt.Println("=== Documentation Search Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Queries:     %d unique\n", len(cfg.Queries))
	fmt.Println()

	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	stats := Run(ctx, client, cfg)
	stats.Report(os.Stdout, cfg.Duration)
	if stats.Total() == 0 {
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

var defaultQueries = []string{
	"getting started",
	"install",
	"configuration",
	"deployment guide",
	"search options",
	"cache settings",
	"storage backend",
	"upgrade",
	"troubleshooting",
	"api reference",
}
