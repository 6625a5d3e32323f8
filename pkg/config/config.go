// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Storage, Redis, Postgres, Kafka, Cache, Search, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Docs     DocsConfig     `yaml:"docs"`
	Storage  StorageConfig  `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Cache    CacheConfig    `yaml:"cache"`
	Search   SearchConfig   `yaml:"search"`
	Memory   MemoryConfig   `yaml:"memory"`
	Perf     PerfConfig     `yaml:"perf"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DocsConfig points at the markdown tree served by the viewer.
type DocsConfig struct {
	Root        string `yaml:"root"`
	Extension   string `yaml:"extension"`
	Concurrency int    `yaml:"concurrency"`
}

// StorageConfig selects the durable key-value backend used by persistent
// caches. Backend is one of memory, redis, postgres or sqlite.
type StorageConfig struct {
	Backend    string        `yaml:"backend"`
	SQLitePath string        `yaml:"sqlitePath"`
	KeyPrefix  string        `yaml:"keyPrefix"`
	Table      string        `yaml:"table"`
	OpTimeout  time.Duration `yaml:"opTimeout"`
	// Breaker settings for persistent cache writes.
	FailureThreshold int           `yaml:"failureThreshold"`
	ResetTimeout     time.Duration `yaml:"resetTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// KafkaConfig holds Kafka broker and topic settings for analytics events.
// Analytics publishing is disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	ConsumerGroup string        `yaml:"consumerGroup"`
	Buffer        int           `yaml:"buffer"`
	BatchSize     int           `yaml:"batchSize"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// CacheConfig sizes the per-source document caches.
type CacheConfig struct {
	Capacity  int    `yaml:"capacity"`
	Namespace string `yaml:"namespace"`
}

// SearchConfig holds search defaults and the query result cache size.
type SearchConfig struct {
	MaxResults     int     `yaml:"maxResults"`
	MaxLimit       int     `yaml:"maxLimit"`
	SearchInTags   bool    `yaml:"searchInTags"`
	FuzzySearch    bool    `yaml:"fuzzySearch"`
	CaseSensitive  bool    `yaml:"caseSensitive"`
	QueryCacheSize int     `yaml:"queryCacheSize"`
	FuzzyPenalty   float64 `yaml:"fuzzyPenalty"`
}

// MemoryConfig controls the memory-pressure check.
type MemoryConfig struct {
	// Threshold is the fraction of the memory limit considered acceptable.
	Threshold float64 `yaml:"threshold"`
	// Limit overrides the runtime memory limit when non-zero (bytes).
	Limit uint64 `yaml:"limit"`
}

// PerfConfig sizes the performance monitor's rolling window.
type PerfConfig struct {
	Window int `yaml:"window"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with defaults suitable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Docs: DocsConfig{
			Root:        "docs",
			Extension:   ".md",
			Concurrency: 8,
		},
		Storage: StorageConfig{
			Backend:          "memory",
			SQLitePath:       "docsearch.db",
			KeyPrefix:        "docsearch-cache",
			Table:            "kv_store",
			OpTimeout:        2 * time.Second,
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "docsearch",
			User:            "docsearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Kafka: KafkaConfig{
			Topic:         "docsearch-analytics",
			ConsumerGroup: "docsearch-analytics-tail",
			Buffer:        1000,
			BatchSize:     100,
			FlushInterval: 5 * time.Second,
		},
		Cache: CacheConfig{
			Capacity:  50,
			Namespace: "local",
		},
		Search: SearchConfig{
			MaxResults:     10,
			MaxLimit:       100,
			QueryCacheSize: 100,
			FuzzyPenalty:   0.5,
		},
		Memory: MemoryConfig{
			Threshold: 0.9,
		},
		Perf: PerfConfig{
			Window: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate reports the first configuration value that cannot work.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "redis", "postgres", "sqlite":
	default:
		return fmt.Errorf("storage.backend %q: must be one of memory, redis, postgres, sqlite", c.Storage.Backend)
	}
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("search.maxResults must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.FuzzyPenalty <= 0 || c.Search.FuzzyPenalty > 1 {
		return fmt.Errorf("search.fuzzyPenalty must be in (0, 1], got %v", c.Search.FuzzyPenalty)
	}
	if c.Memory.Threshold <= 0 || c.Memory.Threshold > 1 {
		return fmt.Errorf("memory.threshold must be in (0, 1], got %v", c.Memory.Threshold)
	}
	if c.Perf.Window < 1 {
		return fmt.Errorf("perf.window must be positive, got %d", c.Perf.Window)
	}
	return nil
}

// applyEnvOverrides reads DS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DS_DOCS_ROOT"); v != "" {
		cfg.Docs.Root = v
	}
	if v := os.Getenv("DS_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("DS_STORAGE_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("DS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("DS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("DS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("DS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("DS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("DS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("DS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("DS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("DS_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("DS_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Capacity = n
		}
	}
	if v := os.Getenv("DS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
