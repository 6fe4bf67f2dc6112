package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/tberg/doorbell/internal/models"
	"github.com/tberg/doorbell/internal/repositories"
)

// VisitService captures page-view telemetry and answers "what was this IP's
// most recent visit". Recording is best-effort in every direction: a failed
// file append or list push is logged and swallowed, never surfaced to the
// page request that triggered it.
type VisitService struct {
	list        repositories.VisitListRepository // nil when no durable store is configured
	log         *repositories.VisitLogRepository
	recentLimit int
	logger      *slog.Logger
}

func NewVisitService(
	list repositories.VisitListRepository,
	log *repositories.VisitLogRepository,
	recentLimit int,
	logger *slog.Logger,
) *VisitService {
	return &VisitService{
		list:        list,
		log:         log,
		recentLimit: recentLimit,
		logger:      logger,
	}
}

// Record appends the visit to the local log and, when configured, to the
// shared list. Fire-and-forget: errors are logged only.
func (s *VisitService) Record(rec models.VisitRecord) {
	if err := s.log.Append(rec); err != nil {
		s.logger.Warn("failed to append visit record", slog.Any("error", err))
	}

	if s.list != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.list.Push(ctx, rec); err != nil {
			s.logger.Warn("failed to push visit record to durable list", slog.Any("error", err))
		}
	}
}

// LatestVisit returns the most recent recorded visit for ip within the
// bounded lookback window, or nil when there is none. The durable list is
// consulted first, then the local log; any storage error degrades to "no
// match". The scan is bounded so a moderation-facing lookup never pays for
// full history.
func (s *VisitService) LatestVisit(ctx context.Context, ip string) *models.VisitRecord {
	if s.list != nil {
		records, err := s.list.Recent(ctx, s.recentLimit)
		if err != nil {
			s.logger.Warn("failed to read durable visit list", slog.Any("error", err))
		} else if rec := newestMatch(records, ip); rec != nil {
			return rec
		}
	}

	records, err := s.log.Tail(s.recentLimit)
	if err != nil {
		s.logger.Warn("failed to read visit log", slog.Any("error", err))
		return nil
	}
	return newestMatch(records, ip)
}

// newestMatch picks the record for ip with the highest timestamp; when
// timestamps tie, the later-appended record wins.
func newestMatch(records []models.VisitRecord, ip string) *models.VisitRecord {
	var best *models.VisitRecord
	for i := range records {
		if records[i].IP != ip {
			continue
		}
		if best == nil || records[i].Timestamp >= best.Timestamp {
			best = &records[i]
		}
	}
	return best
}
