package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/tberg/doorbell/internal/services"
	pkghttp "github.com/tberg/doorbell/pkg/http"
)

// RequestLimiter is the slice of the rate-limit service the edge middleware
// needs. The same canonical limiter implementation backs both this edge
// instance and the contact-endpoint instance; only the window and threshold
// differ.
type RequestLimiter interface {
	Allow(ctx context.Context, key string) services.RateLimitDecision
}

// RateLimitByIP applies a coarse per-IP limit to every inbound request to
// blunt scraping and abuse before any handler runs.
func RateLimitByIP(limiter RequestLimiter, ipConfig *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := pkghttp.ExtractClientIP(r, ipConfig)

			decision := limiter.Allow(r.Context(), ip)
			if !decision.Allowed {
				if decision.RetryAfter > 0 {
					seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
					w.Header().Set("Retry-After", strconv.Itoa(seconds))
				}
				pkghttp.WriteTooManyRequests(w, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
