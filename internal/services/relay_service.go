package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tberg/doorbell/internal/config"
	"github.com/tberg/doorbell/internal/models"
	pkglogger "github.com/tberg/doorbell/pkg/logger"
)

const (
	actionBlock   = "block"
	actionUnblock = "unblock"
)

// BlocklistActions is the narrow entry point the moderation buttons call
// into. Both the HTTP pipeline and the button callbacks go through the same
// canonical blocklist implementation.
type BlocklistActions interface {
	Block(ctx context.Context, ip string) BlockResult
	Unblock(ctx context.Context, ip string) BlockResult
}

// RelayService delivers contact submissions to a Discord moderation channel
// and handles the inline Block IP / Unblock IP actions attached to each
// message. The gateway session connects asynchronously; Notify waits for the
// Ready signal up to a bounded timeout and fails with ErrChannelUnavailable
// when the channel never resolves. One delivery attempt per submission, no
// retry.
//
// With the integration disabled, Notify is a successful no-op.
type RelayService struct {
	session      *discordgo.Session
	channelID    string
	readyTimeout time.Duration
	blocklist    BlocklistActions
	logger       *slog.Logger
	moderation   *pkglogger.ModerationLogger
	enabled      bool

	ready     chan struct{}
	readyOnce sync.Once
}

func NewRelayService(
	cfg *config.DiscordConfig,
	blocklist BlocklistActions,
	logger *slog.Logger,
	moderation *pkglogger.ModerationLogger,
) (*RelayService, error) {
	s := &RelayService{
		channelID:    cfg.ChannelID,
		readyTimeout: cfg.ReadyTimeout,
		blocklist:    blocklist,
		logger:       logger,
		moderation:   moderation,
		enabled:      cfg.Enabled,
		ready:        make(chan struct{}),
	}

	if !cfg.Enabled {
		logger.Info("discord integration disabled, moderation relay is a no-op")
		return s, nil
	}

	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	session.AddHandler(s.onReady)
	session.AddHandler(s.onInteraction)
	s.session = session

	return s, nil
}

// Start opens the gateway connection. Readiness arrives later via the Ready
// event; callers of Notify block on it, not on Start.
func (s *RelayService) Start() error {
	if !s.enabled {
		return nil
	}
	if err := s.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

func (s *RelayService) Close() {
	if s.session != nil {
		if err := s.session.Close(); err != nil {
			s.logger.Warn("failed to close discord session", slog.Any("error", err))
		}
	}
}

// Notify delivers the submission summary with its moderation buttons. The
// error (if any) is for the caller's log; it must not change the submitter's
// response.
func (s *RelayService) Notify(ctx context.Context, sub models.ContactSubmission, ip, ref string, visit *models.VisitRecord) error {
	if !s.enabled {
		return nil
	}

	select {
	case <-s.ready:
	case <-time.After(s.readyTimeout):
		return models.ErrChannelUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}

	_, err := s.session.ChannelMessageSendComplex(s.channelID, &discordgo.MessageSend{
		Content:    FormatSubmissionMessage(sub, ip, ref, visit),
		Components: []discordgo.MessageComponent{moderationButtons(ip)},
	})
	if err != nil {
		return fmt.Errorf("failed to deliver moderation message: %w", err)
	}
	return nil
}

func (s *RelayService) onReady(_ *discordgo.Session, _ *discordgo.Ready) {
	s.readyOnce.Do(func() {
		close(s.ready)
		s.logger.Info("discord session ready", slog.String("channel_id", s.channelID))
	})
}

// onInteraction handles a moderation button press: it parses the action and
// target IP out of the component's custom ID, applies it through the
// canonical blocklist, and answers the pressing moderator privately.
func (s *RelayService) onInteraction(ds *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	action, ip, ok := ParseActionCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result BlockResult
	eventType := "ip_blocked"
	if action == actionBlock {
		result = s.blocklist.Block(ctx, ip)
	} else {
		result = s.blocklist.Unblock(ctx, ip)
		eventType = "ip_unblocked"
	}

	s.moderation.Log(pkglogger.ModerationEvent{
		EventType: eventType,
		IP:        ip,
		Actor:     interactionActor(i),
		Success:   result.Success,
		Reason:    result.Message,
	})

	err := ds.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: result.Message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		s.logger.Warn("failed to respond to moderation interaction", slog.Any("error", err))
	}
}

// FormatSubmissionMessage composes the human-readable summary posted to the
// moderation channel. Geo-location fields are deliberately absent.
func FormatSubmissionMessage(sub models.ContactSubmission, ip, ref string, visit *models.VisitRecord) string {
	var b strings.Builder
	b.WriteString("📬 **New contact submission**\n")

	if name := sub.Name(); name != "" {
		fmt.Fprintf(&b, "**Name:** %s\n", name)
	}
	fmt.Fprintf(&b, "**Email:** %s\n", sub.Email)
	fmt.Fprintf(&b, "**IP:** %s\n", ip)
	if sub.Interest != "" {
		fmt.Fprintf(&b, "**Interest:** %s\n", sub.Interest)
	}
	if sub.Budget != "" {
		fmt.Fprintf(&b, "**Budget:** %s\n", sub.Budget)
	}
	if sub.Description != "" {
		fmt.Fprintf(&b, "**Description:** %s\n", sub.Description)
	}

	if visit != nil {
		fmt.Fprintf(&b, "**Last visit:** %s at %s\n",
			visit.Path,
			visit.Time().UTC().Format("2006-01-02 15:04:05 UTC"),
		)
		if visit.UserAgent != "" {
			fmt.Fprintf(&b, "**User-Agent:** %s\n", visit.UserAgent)
		}
		referrer := visit.Referrer
		if referrer == "" {
			referrer = "direct"
		}
		fmt.Fprintf(&b, "**Referrer:** %s\n", referrer)
	}

	fmt.Fprintf(&b, "Ref: %s", ref)
	return b.String()
}

// ActionCustomID encodes a moderation action and its target IP into a
// component custom ID, "<action>_<ip>".
func ActionCustomID(action, ip string) string {
	return action + "_" + ip
}

// ParseActionCustomID is the inverse of ActionCustomID. ok is false for IDs
// that are not moderation actions.
func ParseActionCustomID(id string) (action, ip string, ok bool) {
	parts := strings.SplitN(id, "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", false
	}
	if parts[0] != actionBlock && parts[0] != actionUnblock {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func moderationButtons(ip string) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Block IP",
				Style:    discordgo.DangerButton,
				CustomID: ActionCustomID(actionBlock, ip),
			},
			discordgo.Button{
				Label:    "Unblock IP",
				Style:    discordgo.SecondaryButton,
				CustomID: ActionCustomID(actionUnblock, ip),
			},
		},
	}
}

func interactionActor(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return "unknown"
}
