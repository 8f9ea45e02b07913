// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api serves the storybook editor surface and the mobile reader API.
//
// # Startup Sequence
//
//  1. Structured JSON logger, then configuration from the environment.
//  2. Tracing exporter (disabled without OTEL_ENDPOINT).
//  3. Schema migrations, then the SQLite or PostgreSQL repository.
//  4. Optional Redis cache for published storybooks.
//  5. Local or GCS asset store.
//  6. HTTP server, stopped gracefully on SIGINT or SIGTERM.
//
// Everything is wired here by constructor injection. Any startup failure is
// logged once and exits with status 1.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/storybook/internal/api"
	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/core/storybook"
	"github.com/taibuivan/storybook/internal/platform/blob"
	"github.com/taibuivan/storybook/internal/platform/config"
	"github.com/taibuivan/storybook/internal/platform/constants"
	"github.com/taibuivan/storybook/internal/platform/migration"
	pgstore "github.com/taibuivan/storybook/internal/platform/postgres"
	redisstore "github.com/taibuivan/storybook/internal/platform/redis"
	"github.com/taibuivan/storybook/internal/platform/sec"
	sqlitestore "github.com/taibuivan/storybook/internal/platform/sqlite"
	"github.com/taibuivan/storybook/internal/platform/telemetry"
)

// startupTimeout bounds dialing every dependency before the server listens.
const startupTimeout = 30 * time.Second

func main() {
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("service_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// run wires the process and blocks until a shutdown signal or a server error.
func run(log *slog.Logger) error {
	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
	}
	if cfg.JWTPubKeyPath == "" {
		return errors.New("config: JWT_PUBLIC_KEY_PATH is required")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("database_driver", cfg.DatabaseDriver),
		slog.String("asset_driver", cfg.AssetDriver),
		slog.Bool("cache_enabled", cfg.RedisURL != ""),
	)

	// signals cancels on SIGINT or SIGTERM; it also stops the rate limiter janitor.
	signals, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup, cancelStartup := context.WithTimeout(signals, startupTimeout)
	defer cancelStartup()

	// # Tracing
	shutdownTracing, err := telemetry.Setup(startup, constants.AppName, constants.AppVersion, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("configure tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Error("tracing_shutdown_failed", slog.Any("error", err))
		}
	}()

	// # Repository
	if err := migration.RunUp(cfg.DatabaseDriver, cfg.DatabaseURL, log); err != nil {
		return err
	}

	var repository storybook.Repository
	var checks []api.Check

	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		db, err := sqlitestore.Open(startup, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		repository = storybook.NewSQLiteRepository(db)
		checks = append(checks, api.Check{Name: "sqlite", Probe: func(ctx context.Context) error {
			return sqlitestore.Ping(ctx, db)
		}})

	default:
		pool, err := pgstore.NewPool(startup, cfg.DatabaseURL, pgstore.Options{
			MaxConns: cfg.DatabaseMaxConns,
			MinConns: cfg.DatabaseMinConns,
		}, log)
		if err != nil {
			return err
		}
		defer pool.Close()

		repository = storybook.NewPostgresRepository(pool)
		checks = append(checks, api.Check{Name: "postgres", Probe: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		}})
	}

	// # Cache
	var cache storybook.Cache = storybook.NoopCache{}
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startup, cfg.RedisURL, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error("redis_close_failed", slog.Any("error", err))
			}
		}()

		cache = storybook.NewRedisCache(rdb)
		checks = append(checks, api.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		}})
	}

	// # Asset Store
	var assets blob.Store
	var assetHandler http.Handler

	switch cfg.AssetDriver {
	case config.AssetsGCS:
		bucket, err := blob.NewGCSStore(startup, cfg.GCSBucket, cfg.GCSEmulatorHost)
		if err != nil {
			return err
		}
		defer func() { _ = bucket.Close() }()
		assets = bucket

	default:
		local, err := blob.NewLocalStore(cfg.AssetRoot)
		if err != nil {
			return err
		}
		assets = local
		assetHandler = http.FileServer(http.Dir(local.Root()))
	}

	verifier, err := sec.NewTokenVerifier(cfg.JWTPubKeyPath, constants.AuthIssuer)
	if err != nil {
		return err
	}

	// # HTTP
	service := storybook.NewService(repository, assets, cache, log)
	liveness, status, readiness := api.NewHealthHandlers(checks, log)

	server := api.NewServer(signals, cfg, log, verifier, api.Handlers{
		Liveness:  liveness,
		Status:    status,
		Readiness: readiness,
		Editor:    storybook.NewHandler(service),
		Mobile:    storybook.NewMobileHandler(service),
		Languages: language.NewHandler(),
		Assets:    assetHandler,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-signals.Done():
		log.Info("shutdown_signal_received")
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}

	log.Info("server_draining", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server_stopped")
	return nil
}

// newLogger builds the JSON process logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}
