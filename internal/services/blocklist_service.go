package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tberg/doorbell/internal/repositories"
)

// BlockResult is the outcome of a block or unblock operation, with a message
// suitable for showing to the moderator who triggered it.
type BlockResult struct {
	Success bool
	Message string
}

// BlocklistService maintains the set of blocked client IPs across three
// locations: an in-memory cache (authoritative after Sync), an optional
// durable redis set, and a local JSON snapshot file. Durable-mirror failures
// are logged and never surfaced to callers; only the in-memory mutation
// decides the operation's outcome.
type BlocklistService struct {
	set      repositories.BlockSetRepository // nil when no durable store is configured
	snapshot *repositories.FileSnapshotRepository
	logger   *slog.Logger

	mu    sync.RWMutex
	cache map[string]struct{}
}

func NewBlocklistService(
	set repositories.BlockSetRepository,
	snapshot *repositories.FileSnapshotRepository,
	logger *slog.Logger,
) *BlocklistService {
	return &BlocklistService{
		set:      set,
		snapshot: snapshot,
		logger:   logger,
		cache:    make(map[string]struct{}),
	}
}

// IsBlocked reports whether ip is blocked. The in-memory cache is consulted
// first; on a miss the durable set is checked and, on a hit, the cache and
// file snapshot are back-filled before returning.
func (s *BlocklistService) IsBlocked(ctx context.Context, ip string) bool {
	s.mu.RLock()
	_, hit := s.cache[ip]
	s.mu.RUnlock()
	if hit {
		return true
	}

	if s.set == nil {
		return false
	}

	found, err := s.set.Contains(ctx, ip)
	if err != nil {
		s.logger.Warn("blocked-set lookup failed", slog.String("ip", ip), slog.Any("error", err))
		return false
	}
	if found {
		s.mu.Lock()
		s.cache[ip] = struct{}{}
		members := s.membersLocked()
		s.mu.Unlock()
		s.saveSnapshot(members)
	}
	return found
}

// Block adds ip to the blocklist. A second block of the same IP fails with an
// already-blocked message and leaves state untouched.
func (s *BlocklistService) Block(ctx context.Context, ip string) BlockResult {
	s.mu.Lock()
	if _, exists := s.cache[ip]; exists {
		s.mu.Unlock()
		return BlockResult{Success: false, Message: fmt.Sprintf("IP %s is already blocked", ip)}
	}
	s.cache[ip] = struct{}{}
	members := s.membersLocked()
	s.mu.Unlock()

	if s.set != nil {
		if err := s.set.Add(ctx, ip); err != nil {
			s.logger.Warn("failed to mirror block to durable set", slog.String("ip", ip), slog.Any("error", err))
		}
	}
	s.saveSnapshot(members)

	s.logger.Info("ip blocked", slog.String("ip", ip))
	return BlockResult{Success: true, Message: fmt.Sprintf("IP %s has been blocked", ip)}
}

// Unblock removes ip from the blocklist. Unblocking an IP that is not
// currently tracked fails with a not-blocked message.
func (s *BlocklistService) Unblock(ctx context.Context, ip string) BlockResult {
	s.mu.Lock()
	if _, exists := s.cache[ip]; !exists {
		s.mu.Unlock()
		return BlockResult{Success: false, Message: fmt.Sprintf("IP %s is not blocked", ip)}
	}
	delete(s.cache, ip)
	members := s.membersLocked()
	s.mu.Unlock()

	if s.set != nil {
		if err := s.set.Remove(ctx, ip); err != nil {
			s.logger.Warn("failed to mirror unblock to durable set", slog.String("ip", ip), slog.Any("error", err))
		}
	}
	s.saveSnapshot(members)

	s.logger.Info("ip unblocked", slog.String("ip", ip))
	return BlockResult{Success: true, Message: fmt.Sprintf("IP %s has been unblocked", ip)}
}

// Sync runs once at startup: it unions the durable set and the file snapshot,
// installs the union as the in-memory set, and writes the union back to both
// sources. Either source losing data is repaired from the other.
func (s *BlocklistService) Sync(ctx context.Context) {
	union := make(map[string]struct{})

	if s.set != nil {
		members, err := s.set.Members(ctx)
		if err != nil {
			s.logger.Warn("failed to read durable blocked set during sync", slog.Any("error", err))
		}
		for _, ip := range members {
			union[ip] = struct{}{}
		}
	}

	snapshotIPs, err := s.snapshot.Load()
	if err != nil {
		s.logger.Warn("failed to read blocklist snapshot during sync", slog.Any("error", err))
	}
	for _, ip := range snapshotIPs {
		union[ip] = struct{}{}
	}

	s.mu.Lock()
	s.cache = union
	members := s.membersLocked()
	s.mu.Unlock()

	if s.set != nil {
		if err := s.set.Replace(ctx, members); err != nil {
			s.logger.Warn("failed to write blocked set during sync", slog.Any("error", err))
		}
	}
	s.saveSnapshot(members)

	s.logger.Info("blocklist synced", slog.Int("blocked_ips", len(members)))
}

// BlockedIPs returns a copy of the current in-memory set.
func (s *BlocklistService) BlockedIPs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.membersLocked()
}

// membersLocked requires at least a read lock to be held.
func (s *BlocklistService) membersLocked() []string {
	members := make([]string, 0, len(s.cache))
	for ip := range s.cache {
		members = append(members, ip)
	}
	return members
}

func (s *BlocklistService) saveSnapshot(members []string) {
	if err := s.snapshot.Save(members); err != nil {
		s.logger.Warn("failed to write blocklist snapshot", slog.Any("error", err))
	}
}
