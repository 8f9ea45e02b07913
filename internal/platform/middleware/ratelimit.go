// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/storybook/internal/platform/apperr"
	"github.com/taibuivan/storybook/internal/platform/constants"
	"github.com/taibuivan/storybook/internal/platform/respond"
)

// # Rate Limiting

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter holds one token bucket per client IP.
type clientLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

func newClientLimiter(requestsPerSecond float64, burst int) *clientLimiter {
	return &clientLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
		now:     time.Now,
	}
}

// reserve takes a token for ip. It returns zero when the request may proceed,
// otherwise the wait until the next token.
func (limiter *clientLimiter) reserve(ip string) time.Duration {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := limiter.now()
	entry, found := limiter.buckets[ip]
	if !found {
		entry = &bucket{limiter: rate.NewLimiter(limiter.limit, limiter.burst)}
		limiter.buckets[ip] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return time.Duration(math.MaxInt64)
	}
	delay := reservation.DelayFrom(now)
	if delay > 0 {
		// A rejected request must not consume the future token.
		reservation.CancelAt(now)
	}
	return delay
}

// evictIdle drops buckets unused for longer than ttl.
func (limiter *clientLimiter) evictIdle(ttl time.Duration) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	cutoff := limiter.now().Add(-ttl)
	for ip, entry := range limiter.buckets {
		if entry.lastSeen.Before(cutoff) {
			delete(limiter.buckets, ip)
		}
	}
}

// RateLimit limits requests per client IP using a token bucket.
//
// Rejected requests get 429 with a Retry-After header. Idle buckets are
// evicted after [constants.RateLimitClientTTL] until the context is cancelled.
func RateLimit(context context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := newClientLimiter(requestsPerSecond, burst)

	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				limiter.evictIdle(constants.RateLimitClientTTL)
			case <-context.Done():
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if wait := limiter.reserve(RealIP(request)); wait > 0 {
				retryAfter := retryAfterSeconds(wait)
				writer.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				respond.Error(writer, request, apperr.RateLimited(retryAfter))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// retryAfterSeconds rounds wait up to whole seconds, capped at one hour.
func retryAfterSeconds(wait time.Duration) int {
	if wait >= time.Hour {
		return int(time.Hour / time.Second)
	}
	seconds := int(math.Ceil(wait.Seconds()))
	return max(seconds, 1)
}
