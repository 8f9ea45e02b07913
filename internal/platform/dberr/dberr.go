// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
//
// Both the pgx (PostgreSQL) and database/sql (SQLite) backends report through
// the helpers here, so repositories classify failures the same way.
package dberr

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/storybook/internal/platform/apperr"
)

// sqliteConstraint is the primary SQLite result code for constraint failures.
// Extended codes (e.g. 2067 for UNIQUE) keep it in their low byte.
const sqliteConstraint = 19

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// # Parameters
//   - err: The raw driver error.
//   - resource: Client-facing resource name used for NOT_FOUND ("Storybook", "Page").
//   - action: Short snake_case label kept in the cause for logs.
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if IsNoRows(err) {
		return apperr.NotFound(resource)
	}

	// 2. Unknown query errors become Internal Server Errors
	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// IsNoRows reports whether err means the query matched nothing, for either driver.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
//
// PostgreSQL is matched on SQLSTATE 23505. SQLite drivers expose an error with
// a Code() method; the constraint class is checked and the message confirms UNIQUE.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		return pgError.Code == pgerrcode.UniqueViolation
	}

	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return coded.Code()&0xff == sqliteConstraint && strings.Contains(err.Error(), "UNIQUE")
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
