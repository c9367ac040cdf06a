// Package database owns the Postgres connection pool used by the site stores.
// A single Manager is built by the composition root and injected wherever a
// query is issued; the pool itself is created lazily on first use.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the subset of *pgxpool.Pool used by the Manager. pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Config controls pool construction and query instrumentation.
type Config struct {
	ConnString         string
	MaxConns           int32
	IdleTimeout        time.Duration
	ConnectTimeout     time.Duration
	SlowQueryThreshold time.Duration
}

// PoolFactory builds a Pool from Config.
type PoolFactory func(ctx context.Context, cfg Config) (Pool, error)

// NewPgxPool creates a pgx connection pool. It does not dial; connectivity is
// established by the first statement or by Manager.ConnectWithRetry.
func NewPgxPool(ctx context.Context, cfg Config) (Pool, error) {
	if cfg.ConnString == "" {
		return nil, fmt.Errorf("database connection string is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.IdleTimeout > 0 {
		poolCfg.MaxConnIdleTime = cfg.IdleTimeout
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	return pool, nil
}
