package background

import (
	"context"
	"log/slog"
	"time"
)

// Prunable is anything that can drop stale per-key state and report how much
// it removed.
type Prunable interface {
	PruneStale() int
}

// CleanupManager periodically prunes stale in-memory rate-limit windows so a
// long-lived process does not accumulate one entry per client IP forever.
type CleanupManager struct {
	limiters []Prunable
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(limiters []Prunable, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		limiters: limiters,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cm.runCleanup()
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup() {
	pruned := 0
	for _, l := range cm.limiters {
		pruned += l.PruneStale()
	}
	if pruned > 0 {
		cm.logger.Info("stale rate windows pruned", slog.Int("pruned", pruned))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
