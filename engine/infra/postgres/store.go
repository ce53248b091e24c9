// Package postgres persists classification rules and task templates. Scoped
// list fields are serialized as JSONB at this boundary only; the domain
// model sees native slices.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stafflow/stafflow/pkg/config"
	"github.com/stafflow/stafflow/pkg/logger"
)

const (
	defaultMaxConns       = 10
	defaultConnectTimeout = 5 * time.Second
	defaultPingTimeout    = 3 * time.Second
)

// DB is the minimal interface the repositories depend on; satisfied by
// pgxpool.Pool and pgxmock.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store owns the pgx pool. It does not leak pgx types through its public API
// beyond the DB interface handed to repositories.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres: config is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	poolCfg.MaxConns = defaultMaxConns
	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	logger.FromContext(ctx).Info("postgres store initialized",
		"host", cfg.Host, "database", cfg.Name, "max_conns", defaultMaxConns)
	return &Store{pool: pool}, nil
}

// DB exposes the pool for repository construction.
func (s *Store) DB() DB {
	return s.pool
}

func (s *Store) Close() {
	s.pool.Close()
}
