// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storybook/internal/platform/migration"
)

/*
TestRunUp_SQLiteIdempotent verifies the embedded schema applies twice without error.
*/
func TestRunUp_SQLiteIdempotent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "storybook.db")

	require.NoError(t, migration.RunUp(migration.DialectSQLite, path, logger))
	assert.NoError(t, migration.RunUp(migration.DialectSQLite, path, logger))
}

/*
TestRunDown_SQLite verifies migrations can be reverted.
*/
func TestRunDown_SQLite(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "storybook.db")

	require.NoError(t, migration.RunUp(migration.DialectSQLite, path, logger))

	status, err := migration.CurrentStatus(migration.DialectSQLite, path, logger)
	require.NoError(t, err)
	assert.Equal(t, migration.Status{Version: 2}, status)

	assert.NoError(t, migration.RunDown(migration.DialectSQLite, path, 2, logger))
	assert.Error(t, migration.RunDown(migration.DialectSQLite, path, 0, logger))

	status, err = migration.CurrentStatus(migration.DialectSQLite, path, logger)
	require.NoError(t, err)
	assert.Equal(t, migration.Status{}, status)
}

/*
TestRunUp_UnknownDialect verifies unsupported dialects are refused.
*/
func TestRunUp_UnknownDialect(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Error(t, migration.RunUp("mysql", "mysql://localhost", logger))
}
