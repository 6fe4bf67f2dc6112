package logger

import (
	"context"
	"log/slog"
	"time"
)

// ModerationEvent records a moderation-relevant outcome: a contact submission
// decision or a block/unblock action on a client IP.
type ModerationEvent struct {
	EventType string // e.g. "submission_accepted", "ip_blocked"
	IP        string
	Actor     string // moderator identifier for block/unblock, empty otherwise
	Success   bool
	Reason    string
}

// ModerationLogger emits structured moderation events alongside the regular
// application log so operators can audit who blocked what and why.
type ModerationLogger struct {
	logger *slog.Logger
}

func NewModerationLogger(logger *slog.Logger) *ModerationLogger {
	return &ModerationLogger{logger: logger}
}

func (ml *ModerationLogger) Log(event ModerationEvent) {
	attrs := []slog.Attr{
		slog.String("moderation_type", "contact"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.IP != "" {
		attrs = append(attrs, slog.String("ip_address", event.IP))
	}
	if event.Actor != "" {
		attrs = append(attrs, slog.String("actor", event.Actor))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	ml.logger.LogAttrs(context.Background(), level, "moderation", attrs...)
}
