package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tberg/doorbell/internal/repositories"
)

// RateLimitDecision is the outcome of a rate-limit check. RetryAfter is a
// hint for the caller and is only set on a denial.
type RateLimitDecision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimitService bounds the rate of actions per client key with a fixed
// window: the first action from a key opens a window and every action inside
// it increments the counter; once the window expires the next action starts a
// fresh window at count 1.
//
// Fixed windows admit up to 2x the limit across a window boundary (a burst at
// the end of one window plus a burst at the start of the next). That matches
// the original behavior and is accepted here rather than papered over with a
// sliding window.
//
// When a durable counter is available it is preferred, so the limit holds
// across replicas; the counter increment is a single atomic round trip. On
// counter errors, and when no durable store is configured, the service falls
// back to a per-process window map.
type RateLimitService struct {
	counters repositories.CounterRepository // nil when no durable store is configured
	purpose  string
	window   time.Duration
	max      int
	logger   *slog.Logger

	now func() time.Time

	mu      sync.Mutex
	windows map[string]*rateWindow
}

type rateWindow struct {
	start time.Time
	count int
}

func NewRateLimitService(
	counters repositories.CounterRepository,
	purpose string,
	window time.Duration,
	max int,
	logger *slog.Logger,
) *RateLimitService {
	return &RateLimitService{
		counters: counters,
		purpose:  purpose,
		window:   window,
		max:      max,
		logger:   logger,
		now:      time.Now,
		windows:  make(map[string]*rateWindow),
	}
}

// Allow records one action for key and reports whether it is within the
// limit.
func (s *RateLimitService) Allow(ctx context.Context, key string) RateLimitDecision {
	if s.counters != nil {
		count, ttl, err := s.counters.Incr(ctx, s.purpose, key, s.window)
		if err == nil {
			if count <= int64(s.max) {
				return RateLimitDecision{Allowed: true}
			}
			return RateLimitDecision{Allowed: false, RetryAfter: ttl}
		}
		s.logger.Warn("durable rate counter unavailable, using in-process window",
			slog.String("purpose", s.purpose),
			slog.Any("error", err),
		)
	}
	return s.allowLocal(key)
}

func (s *RateLimitService) allowLocal(key string) RateLimitDecision {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= s.window {
		s.windows[key] = &rateWindow{start: now, count: 1}
		return RateLimitDecision{Allowed: true}
	}

	w.count++
	if w.count <= s.max {
		return RateLimitDecision{Allowed: true}
	}
	return RateLimitDecision{Allowed: false, RetryAfter: w.start.Add(s.window).Sub(now)}
}

// PruneStale drops in-process windows that expired before the last full
// window, returning how many were removed. Stale windows are semantically
// inert; pruning only bounds memory growth.
func (s *RateLimitService) PruneStale() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for key, w := range s.windows {
		if now.Sub(w.start) >= 2*s.window {
			delete(s.windows, key)
			pruned++
		}
	}
	return pruned
}
