package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tberg/doorbell/internal/middleware"
	"github.com/tberg/doorbell/internal/services"
	pkghttp "github.com/tberg/doorbell/pkg/http"
)

type stubLimiter struct {
	decision services.RateLimitDecision
	lastKey  string
}

func (s *stubLimiter) Allow(ctx context.Context, key string) services.RateLimitDecision {
	s.lastKey = key
	return s.decision
}

func serveLimited(limiter *stubLimiter, req *http.Request) (*httptest.ResponseRecorder, *bool) {
	reached := false
	handler := middleware.RateLimitByIP(limiter, &pkghttp.IPConfig{})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusOK)
		}),
	)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, &reached
}

func TestRateLimitByIP_AllowsWithinLimit(t *testing.T) {
	limiter := &stubLimiter{decision: services.RateLimitDecision{Allowed: true}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	rec, reached := serveLimited(limiter, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *reached)
	assert.Equal(t, "1.2.3.4", limiter.lastKey)
}

func TestRateLimitByIP_DeniesOverLimit(t *testing.T) {
	limiter := &stubLimiter{decision: services.RateLimitDecision{
		Allowed:    false,
		RetryAfter: 5 * time.Second,
	}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec, reached := serveLimited(limiter, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.False(t, *reached)
}
