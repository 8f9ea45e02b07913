// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey holds the context keys written by middleware. Use ctxutil
// to read and write the values.
package ctxkey

type key int

const (
	// KeyRequestID holds the X-Request-ID string.
	KeyRequestID key = iota

	// KeyUser holds the verified [sec.AuthClaims].
	KeyUser

	// KeyLogger holds the request-scoped [*log/slog.Logger].
	KeyLogger
)
