package ratelimit

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/assetflow/assetflow/internal/platform/httpx"
)

// UnknownKey is the shared bucket for callers whose address cannot be
// established. Coarse on purpose: unidentifiable traffic throttles together.
const UnknownKey = "unknown"

// KeyFunc derives the limiter key from a request.
type KeyFunc func(r *http.Request) string

// KeyByClientIP keys on the first X-Forwarded-For hop, then the direct peer
// address. Trusting the forwarded header assumes a reverse proxy in front.
func KeyByClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if addr := strings.TrimSpace(r.RemoteAddr); addr != "" {
		return addr
	}
	return UnknownKey
}

// Middleware rejects requests exceeding limit per window for their key.
// Denials carry Retry-After plus the X-RateLimit-* trio; allowed responses
// carry the trio as well. A store outage fails open with a logged warning
// rather than taking the API down with it.
func Middleware(store Store, limit int, window time.Duration, key KeyFunc, logger *slog.Logger) func(http.Handler) http.Handler {
	if key == nil {
		key = KeyByClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := store.Take(r.Context(), key(r), limit, window)
			if err != nil {
				if logger != nil {
					logger.Warn("rate limit store unavailable", slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				retry := int(math.Ceil(res.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				httpx.JSON(w, http.StatusTooManyRequests, httpx.ErrorBody{
					Error:      "Too many requests",
					RetryAfter: retry,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
