// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/httpme/httpme/internal/api/problem"
)

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	// RequestLimit is the maximum number of requests allowed in the window
	RequestLimit int
	// WindowSize is the time window for rate limiting
	WindowSize time.Duration
	// KeyFunc extracts the rate limit key from the request.
	// If nil, defaults to IP-based rate limiting.
	KeyFunc func(r *http.Request) (string, error)
}

// RateLimit creates a sliding-window rate limiter using httprate.
// Rejected requests get a 429 problem with Retry-After.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	retryAfter := strconv.Itoa(int(cfg.WindowSize.Seconds()))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retryAfter)
			problem.Write(w, r, http.StatusTooManyRequests, "server/rate_limited", "Too Many Requests", "RATE_LIMIT_EXCEEDED",
				"Too many requests. Please try again later.", nil)
		}),
	)
}

// PerMinute limits each client IP to n requests per minute.
func PerMinute(n int) func(http.Handler) http.Handler {
	return RateLimit(RateLimitConfig{RequestLimit: n, WindowSize: time.Minute})
}
