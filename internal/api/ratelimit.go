package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rutapp/rut-server/internal/ratelimit"
)

// RateLimiter wraps KeyedRateLimiter for API use.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a limiter allowing perMinute requests per client,
// with bursts up to burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return ratelimit.PerMinute(perMinute, burst)
}

// rateLimited returns a huma middleware that limits requests by client IP.
// Rejected requests get 429 in the usual error envelope.
func rateLimited(api huma.API, limiter *RateLimiter, logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		key := clientIP(ctx.Header, ctx.RemoteAddr())

		if !limiter.Allow(key) {
			logger.Warn("rate limit exceeded",
				"ip", key,
				"path", ctx.URL().Path,
			)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}

		next(ctx)
	}
}

// clientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to the
// remote address.
func clientIP(header func(string) string, remoteAddr string) string {
	// First entry of X-Forwarded-For is the client.
	if xff := header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := header("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
