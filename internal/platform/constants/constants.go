// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, page sizes, and cross-cutting keys that
are shared between different layers of the system.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "storybook-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	// Uploads of up to four files arrive in a single multipart body.
	DefaultReadTimeout = 60 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 60 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 45 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Listing Page Sizes

const (
	// MobilePageSize is the fixed page size of the public mobile listing.
	MobilePageSize = 20

	// EditorPageSize is the page size of the editor storybook index.
	EditorPageSize = 12

	// EditorPagesPageSize is the page size of the editor page index of one storybook.
	EditorPagesPageSize = 10
)

// # Uploads

const (
	// MaxUploadBodyBytes bounds a whole multipart request (cover or image plus two audio files).
	MaxUploadBodyBytes = 32 << 20

	// MultipartMemoryBytes is the in-memory threshold before multipart parts spill to disk.
	MultipartMemoryBytes = 8 << 20
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "storybook.app"

	// EditorTokenTTL is the lifetime of developer tokens minted by the CLI.
	EditorTokenTTL = 12 * time.Hour
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
)

// # Probe Field Identifiers

const (
	FieldStatus    = "status"
	FieldTimestamp = "timestamp"
	FieldChecks    = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	// RedisPrefixPublishedStorybook keys a published storybook with its pages.
	RedisPrefixPublishedStorybook = "storybook:published:"

	// PublishedStorybookTTL bounds how long a cached storybook may be served.
	PublishedStorybookTTL = 5 * time.Minute
)
