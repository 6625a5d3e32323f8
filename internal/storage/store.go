// Package storage defines the durable key-value contract persistent caches
// write through, with in-memory, Redis, PostgreSQL and SQLite backends.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

// Store is a host's durable key-value facility. Get reports a missing key
// with ok=false and a nil error; any returned error means the store itself
// failed. Set and Remove may fail for quota or connectivity reasons.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Open builds the backend named by cfg.Storage.Backend. Network backends are
// dialed with retries.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	logger := slog.Default().With("component", "storage", "backend", cfg.Storage.Backend)
	switch cfg.Storage.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		var client *pkgredis.Client
		err := resilience.Retry(ctx, "redis-connect", resilience.RetryConfig{}, func() error {
			var err error
			client, err = pkgredis.NewClient(ctx, cfg.Redis)
			return err
		})
		if err != nil {
			return nil, err
		}
		logger.Info("durable store connected", "addr", cfg.Redis.Addr)
		return NewRedis(client, cfg.Storage.KeyPrefix), nil
	case "postgres":
		var client *postgres.Client
		err := resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{}, func() error {
			var err error
			client, err = postgres.New(ctx, cfg.Postgres)
			return err
		})
		if err != nil {
			return nil, err
		}
		store, err := NewPostgres(ctx, client, cfg.Storage.Table)
		if err != nil {
			client.Close()
			return nil, err
		}
		logger.Info("durable store connected", "host", cfg.Postgres.Host, "table", cfg.Storage.Table)
		return store, nil
	case "sqlite":
		store, err := OpenSQLite(ctx, cfg.Storage.SQLitePath, cfg.Storage.Table)
		if err != nil {
			return nil, err
		}
		logger.Info("durable store opened", "path", cfg.Storage.SQLitePath)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
