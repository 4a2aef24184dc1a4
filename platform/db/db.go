// Package db provides the shared Postgres connection pool and migrations.
package db

import (
	"context"
	"time"

	"fait_platform_backend/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing covers the engine's bounded per-home workers, the outbox
// dispatcher and the ops API sharing one pool.
const (
	maxConns        = 25
	minConns        = 5
	connMaxLifetime = 1 * time.Hour
	connMaxIdleTime = 30 * time.Minute
	healthCheck     = 1 * time.Minute
)

// NewPool opens a pgx connection pool and verifies the database is reachable.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnLifetime = connMaxLifetime
	poolConfig.MaxConnIdleTime = connMaxIdleTime
	poolConfig.HealthCheckPeriod = healthCheck

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
