package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/postgres"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// dialect holds the statements that differ between PostgreSQL and SQLite.
type dialect struct {
	schema string
	get    string
	upsert string
	remove string
	clear  string
}

func newDialect(table string, postgres bool) (dialect, error) {
	if !tableName.MatchString(table) {
		return dialect{}, fmt.Errorf("invalid table name %q", table)
	}
	ph := func(n int) string { return "?" }
	updatedAt := "updated_at TEXT NOT NULL"
	if postgres {
		ph = func(n int) string { return fmt.Sprintf("$%d", n) }
		updatedAt = "updated_at TIMESTAMPTZ NOT NULL"
	}
	return dialect{
		schema: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	%s
)`, table, updatedAt),
		get: fmt.Sprintf(`SELECT value FROM %s WHERE key = %s`, table, ph(1)),
		upsert: fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (%s, %s, %s)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			table, ph(1), ph(2), ph(3)),
		remove: fmt.Sprintf(`DELETE FROM %s WHERE key = %s`, table, ph(1)),
		clear:  fmt.Sprintf(`DELETE FROM %s`, table),
	}, nil
}

// SQL is a Store backed by a single key/value table.
//
//	CREATE TABLE kv_store (
//	    key        TEXT PRIMARY KEY,
//	    value      TEXT NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
type SQL struct {
	db      *sql.DB
	d       dialect
	sqlite  bool
	closeFn func() error
}

var _ Store = (*SQL)(nil)

// NewPostgres creates the table if needed and returns a Store over client.
func NewPostgres(ctx context.Context, client *postgres.Client, table string) (*SQL, error) {
	d, err := newDialect(table, true)
	if err != nil {
		return nil, err
	}
	s := &SQL{db: client.DB, d: d, closeFn: client.Close}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSQLite opens (or creates) a file-backed store at path. Use ":memory:"
// for a throwaway database.
func OpenSQLite(ctx context.Context, path, table string) (*SQL, error) {
	d, err := newDialect(table, false)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}
	s := &SQL{db: db, d: d, sqlite: true, closeFn: db.Close}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQL) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.d.schema); err != nil {
		return fmt.Errorf("creating kv table: %w", err)
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.d.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	var updatedAt any = time.Now().UTC()
	if s.sqlite {
		updatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if _, err := s.db.ExecContext(ctx, s.d.upsert, key, value, updatedAt); err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.d.remove, key); err != nil {
		return fmt.Errorf("removing key %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.d.clear); err != nil {
		return fmt.Errorf("clearing kv table: %w", err)
	}
	return nil
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQL) Close() error {
	return s.closeFn()
}
