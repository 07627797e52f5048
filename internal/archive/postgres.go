// Package archive provides the optional Postgres-backed outcome
// archive. Writes are a best-effort side-channel for offline analysis;
// the in-memory learning store never reads from it.
package archive

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagehound/scraperd/internal/scraper"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for outcome rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresWriter inserts outcome rows into Postgres.
type PostgresWriter struct {
	pool  execCloser
	table string
}

// NewPostgresWriter creates a writer using the provided config.
func NewPostgresWriter(ctx context.Context, cfg Config) (*PostgresWriter, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "selector_outcomes"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresWriter{pool: pool, table: table}, nil
}

// NewPostgresWriterWithPool constructs a writer from an existing pool
// (primarily for testing).
func NewPostgresWriterWithPool(pool execCloser, table string) (*PostgresWriter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "selector_outcomes"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresWriter{pool: pool, table: table}, nil
}

// WriteOutcome inserts one outcome row.
func (w *PostgresWriter) WriteOutcome(ctx context.Context, outcome scraper.Outcome) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (url, selector, element_type, success, recorded_at) VALUES ($1, $2, $3, $4, $5)`,
		w.table,
	)
	if _, err := w.pool.Exec(
		ctx,
		query,
		outcome.URL,
		outcome.Selector,
		outcome.ElementType,
		outcome.Success,
		outcome.Timestamp,
	); err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (w *PostgresWriter) Close() {
	if w.pool != nil {
		w.pool.Close()
	}
}
