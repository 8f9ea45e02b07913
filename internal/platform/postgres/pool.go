// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres opens the pgx connection pool behind the storybook repository.
//
// Every pooled connection gets a statement timeout, and every query becomes
// an OpenTelemetry client span so slow listings show up next to the HTTP
// span that issued them.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/storybook/internal/platform/constants"
)

const (
	defaultMaxConns   = 25
	defaultMinConns   = 2
	maxConnLifetime   = 60 * time.Minute
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = 1 * time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second
)

// Options tunes the pool. Zero fields take the defaults.
type Options struct {
	// MaxConns caps open connections. The API defaults to 25; the CLI needs few.
	MaxConns int32

	// MinConns keeps warm connections for the first mobile requests after idle.
	MinConns int32

	// StatementTimeout aborts runaway queries server-side. Defaults to the
	// global request timeout.
	StatementTimeout time.Duration
}

func (options Options) withDefaults() Options {
	if options.MaxConns <= 0 {
		options.MaxConns = defaultMaxConns
	}
	if options.MinConns <= 0 {
		options.MinConns = defaultMinConns
	}
	options.MinConns = min(options.MinConns, options.MaxConns)
	if options.StatementTimeout <= 0 {
		options.StatementTimeout = constants.GlobalRequestTimeout
	}
	return options
}

// NewPool creates a PostgreSQL pool and verifies it answers a ping.
//
// # Parameters
//   - ctx: Context for the initial connection attempt.
//   - dsn: A libpq-compatible connection string or postgres:// URL.
//   - options: Pool sizing and timeouts.
//   - logger: Structured logger for pool-level events.
func NewPool(ctx context.Context, dsn string, options Options, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	options = options.withDefaults()
	poolConfig.MaxConns = options.MaxConns
	poolConfig.MinConns = options.MinConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout
	poolConfig.ConnConfig.Tracer = newQueryTracer(poolConfig.ConnConfig.Database)

	statementTimeout := fmt.Sprintf("SET statement_timeout = %d", options.StatementTimeout.Milliseconds())
	poolConfig.AfterConnect = func(ctx context.Context, connection *pgx.Conn) error {
		_, err := connection.Exec(ctx, statementTimeout)
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres_pool_connected",
		slog.String("database", poolConfig.ConnConfig.Database),
		slog.Int("max_conns", int(options.MaxConns)),
		slog.Int("min_conns", int(options.MinConns)),
		slog.Duration("statement_timeout", options.StatementTimeout),
	)

	return pool, nil
}

// Ping verifies that the pool can reach the server.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}
	return nil
}
