// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/taibuivan/storybook/internal/core/storybook"
	"github.com/taibuivan/storybook/internal/platform/blob"
	"github.com/taibuivan/storybook/internal/platform/config"
	"github.com/taibuivan/storybook/internal/platform/constants"
	pgstore "github.com/taibuivan/storybook/internal/platform/postgres"
	redisstore "github.com/taibuivan/storybook/internal/platform/redis"
	sqlitestore "github.com/taibuivan/storybook/internal/platform/sqlite"
)

// cliMaxConns is enough for one sequential command.
const cliMaxConns = 2

type commandContext struct {
	verbose *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(verbose *bool) *commandContext {
	return &commandContext{verbose: verbose}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load()
	})
	return c.config, c.configErr
}

// logger writes text logs to stderr so table output on stdout stays clean.
func (c *commandContext) logger() *slog.Logger {
	level := slog.LevelInfo
	if c.verbose != nil && *c.verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", "storyctl"))
}

// closers releases opened resources in reverse order.
type closers []io.Closer

func (list closers) Close() error {
	var errs []error
	for i := len(list) - 1; i >= 0; i-- {
		errs = append(errs, list[i].Close())
	}
	return errors.Join(errs...)
}

type closeFunc func()

func (fn closeFunc) Close() error {
	fn()
	return nil
}

// withService opens the configured repository, asset store, and cache,
// builds a [storybook.Service], and releases everything after fn returns.
func (c *commandContext) withService(context context.Context, fn func(*storybook.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	log := c.logger()

	var opened closers
	defer func() { _ = opened.Close() }()

	var repository storybook.Repository
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		db, err := sqlitestore.Open(context, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		opened = append(opened, db)
		repository = storybook.NewSQLiteRepository(db)
	default:
		pool, err := pgstore.NewPool(context, cfg.DatabaseURL, pgstore.Options{MaxConns: cliMaxConns}, log)
		if err != nil {
			return err
		}
		opened = append(opened, closeFunc(pool.Close))
		repository = storybook.NewPostgresRepository(pool)
	}

	var assets blob.Store
	switch cfg.AssetDriver {
	case config.AssetsGCS:
		bucket, err := blob.NewGCSStore(context, cfg.GCSBucket, cfg.GCSEmulatorHost)
		if err != nil {
			return err
		}
		opened = append(opened, bucket)
		assets = bucket
	default:
		local, err := blob.NewLocalStore(cfg.AssetRoot)
		if err != nil {
			return err
		}
		assets = local
	}

	// Repairs invalidate the cached published copies the API serves.
	var cache storybook.Cache = storybook.NoopCache{}
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(context, cfg.RedisURL, log)
		if err != nil {
			return err
		}
		opened = append(opened, rdb)
		cache = storybook.NewRedisCache(rdb)
	}

	log.Debug("service_opened",
		slog.String("database_driver", cfg.DatabaseDriver),
		slog.String("asset_driver", cfg.AssetDriver),
		slog.String("version", constants.AppVersion),
	)

	return fn(storybook.NewService(repository, assets, cache, log))
}
