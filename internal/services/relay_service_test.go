package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tberg/doorbell/internal/config"
	"github.com/tberg/doorbell/internal/models"
	pkglogger "github.com/tberg/doorbell/pkg/logger"
)

func TestFormatSubmissionMessage_FullSubmissionWithVisit(t *testing.T) {
	sub := models.ContactSubmission{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "a@b.com",
		Interest:    "Consulting",
		Budget:      "5-10k",
		Description: "hello",
	}
	visit := &models.VisitRecord{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
		IP:        "1.2.3.4",
		Path:      "/pricing",
		UserAgent: "Mozilla/5.0",
		Referrer:  "https://news.example/post",
	}

	msg := FormatSubmissionMessage(sub, "1.2.3.4", "ref-123", visit)

	assert.Contains(t, msg, "Ada Lovelace")
	assert.Contains(t, msg, "a@b.com")
	assert.Contains(t, msg, "1.2.3.4")
	assert.Contains(t, msg, "Consulting")
	assert.Contains(t, msg, "hello")
	assert.Contains(t, msg, "/pricing")
	assert.Contains(t, msg, "2025-06-01 12:00:00 UTC")
	assert.Contains(t, msg, "Mozilla/5.0")
	assert.Contains(t, msg, "https://news.example/post")
	assert.Contains(t, msg, "ref-123")
}

func TestFormatSubmissionMessage_OmitsEmptyFields(t *testing.T) {
	sub := models.ContactSubmission{Email: "a@b.com"}

	msg := FormatSubmissionMessage(sub, "1.2.3.4", "ref", nil)

	assert.NotContains(t, msg, "Name:")
	assert.NotContains(t, msg, "Interest:")
	assert.NotContains(t, msg, "Budget:")
	assert.NotContains(t, msg, "Description:")
	assert.NotContains(t, msg, "Last visit:")
}

func TestFormatSubmissionMessage_MissingReferrerIsDirect(t *testing.T) {
	sub := models.ContactSubmission{Email: "a@b.com"}
	visit := &models.VisitRecord{Timestamp: 1000, IP: "1.2.3.4", Path: "/"}

	msg := FormatSubmissionMessage(sub, "1.2.3.4", "ref", visit)
	assert.Contains(t, msg, "**Referrer:** direct")
}

func TestActionCustomID_RoundTrip(t *testing.T) {
	for _, action := range []string{"block", "unblock"} {
		id := ActionCustomID(action, "1.2.3.4")
		gotAction, gotIP, ok := ParseActionCustomID(id)
		require.True(t, ok, "id %q should parse", id)
		assert.Equal(t, action, gotAction)
		assert.Equal(t, "1.2.3.4", gotIP)
	}
}

func TestActionCustomID_RoundTripIPv6(t *testing.T) {
	id := ActionCustomID("block", "2001:db8::1")
	action, ip, ok := ParseActionCustomID(id)
	require.True(t, ok)
	assert.Equal(t, "block", action)
	assert.Equal(t, "2001:db8::1", ip)
}

func TestParseActionCustomID_RejectsUnknownIDs(t *testing.T) {
	for _, id := range []string{"", "block", "block_", "delete_1.2.3.4", "noseparator"} {
		_, _, ok := ParseActionCustomID(id)
		assert.False(t, ok, "id %q should not parse", id)
	}
}

func TestRelayService_DisabledIsNoOp(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	svc, err := NewRelayService(
		&config.DiscordConfig{Enabled: false},
		nil,
		logger,
		pkglogger.NewModerationLogger(logger),
	)
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	defer svc.Close()

	err = svc.Notify(context.Background(), models.ContactSubmission{Email: "a@b.com"}, "1.2.3.4", "ref", nil)
	assert.NoError(t, err)
}

func TestRelayService_NotifyTimesOutWhenNeverReady(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	svc, err := NewRelayService(
		&config.DiscordConfig{
			Enabled:      true,
			BotToken:     "test-token",
			ChannelID:    "123",
			ReadyTimeout: 20 * time.Millisecond,
		},
		nil,
		logger,
		pkglogger.NewModerationLogger(logger),
	)
	require.NoError(t, err)

	// Session never opened, so the ready signal can never arrive.
	err = svc.Notify(context.Background(), models.ContactSubmission{Email: "a@b.com"}, "1.2.3.4", "ref", nil)
	assert.ErrorIs(t, err, models.ErrChannelUnavailable)
}

func TestRelayService_NotifyRespectsContextCancellation(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	svc, err := NewRelayService(
		&config.DiscordConfig{
			Enabled:      true,
			BotToken:     "test-token",
			ChannelID:    "123",
			ReadyTimeout: time.Minute,
		},
		nil,
		logger,
		pkglogger.NewModerationLogger(logger),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = svc.Notify(ctx, models.ContactSubmission{Email: "a@b.com"}, "1.2.3.4", "ref", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
