// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sqlite opens the embedded SQLite database used for local development,
// single-node deployments, and repository tests.
//
// The modernc driver is pure Go, so no cgo toolchain is required.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
)

// FoldFunction is a scalar SQL function returning its text argument
// lower-cased with Unicode rules. The built-in lower() and LIKE fold ASCII only.
const FoldFunction = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(FoldFunction, 1, foldText)
}

func foldText(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch value := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(value), nil
	case []byte:
		return strings.ToLower(string(value)), nil
	default:
		return value, nil
	}
}

const (
	// pingTimeout is the maximum duration for a health check ping.
	pingTimeout = 2 * time.Second
)

// connectionPragmas run on every new connection. Foreign keys are off by
// default in SQLite and must be enabled per connection for ON DELETE CASCADE.
var connectionPragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// Open opens (or creates) the database file at path and verifies it responds.
// A "sqlite://" prefix is accepted so the same DATABASE_URL feeds the migrator.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "sqlite://")
	if path == "" {
		return nil, fmt.Errorf("sqlite: database path is required")
	}

	pragmas := make([]string, 0, len(connectionPragmas))
	for _, pragma := range connectionPragmas {
		pragmas = append(pragmas, "_pragma="+pragma)
	}
	dsn := "file:" + filepath.Clean(path) + "?" + strings.Join(pragmas, "&")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open %s: %w", path, err)
	}

	if err := Ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("sqlite database opened", slog.String("path", path))

	return db, nil
}

// Ping verifies that the database handle is healthy.
func Ping(ctx context.Context, db *sql.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}

	return nil
}
