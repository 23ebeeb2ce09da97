package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"nas-media-catalog/internal/metrics"
)

// RateLimitConfig holds configuration for the rate limiting middleware
type RateLimitConfig struct {
	// RequestLimit is the number of requests allowed per client in WindowSize
	RequestLimit int
	WindowSize   time.Duration
	// KeyFunc picks the rate limit key; nil limits per client IP
	KeyFunc httprate.KeyFunc
}

// RateLimit limits requests with a sliding window per key. Rejected
// requests get a 429 with Retry-After and are counted by path.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	retryAfter := strconv.Itoa(max(1, int(cfg.WindowSize.Seconds())))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.HTTPRateLimited.WithLabelValues(normalizePath(r.URL.Path)).Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too many requests. Please try again later."}` + "\n"))
		}),
	)
}

// ScanRateLimit guards operations that walk the whole media server:
// scans and reconnects. Six per minute per client.
func ScanRateLimit() func(http.Handler) http.Handler {
	return RateLimit(RateLimitConfig{
		RequestLimit: 6,
		WindowSize:   time.Minute,
	})
}
