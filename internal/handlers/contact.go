package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tberg/doorbell/internal/models"
	"github.com/tberg/doorbell/internal/services"
	pkghttp "github.com/tberg/doorbell/pkg/http"
	pkglogger "github.com/tberg/doorbell/pkg/logger"
)

const maxContactBodyBytes = 64 << 10

// User-facing rejection text is intentionally generic: it must not reveal
// why an IP is blocked or what the rate-limit thresholds are.
const (
	msgBlocked     = "You may not send messages at this time"
	msgRateLimited = "Too many submissions, please try again later"
)

// BlocklistChecker answers whether a client IP is blocked
type BlocklistChecker interface {
	IsBlocked(ctx context.Context, ip string) bool
}

// SubmissionLimiter bounds contact submissions per client IP
type SubmissionLimiter interface {
	Allow(ctx context.Context, key string) services.RateLimitDecision
}

// VisitSource provides the most recent visit for a client IP
type VisitSource interface {
	LatestVisit(ctx context.Context, ip string) *models.VisitRecord
}

// SubmissionRelay delivers accepted submissions to the moderation channel
type SubmissionRelay interface {
	Notify(ctx context.Context, sub models.ContactSubmission, ip, ref string, visit *models.VisitRecord) error
}

// ContactHandler orchestrates one inbound contact submission:
// block check → rate check → schema validation → domain validation →
// visit correlation → moderation relay. The first four steps short-circuit
// in exactly that order; correlation and relay are best-effort and never
// change the submitter-facing result.
type ContactHandler struct {
	blocklist  BlocklistChecker
	limiter    SubmissionLimiter
	visits     VisitSource
	relay      SubmissionRelay
	disposable map[string]struct{}
	ipConfig   *pkghttp.IPConfig
	logger     *slog.Logger
	moderation *pkglogger.ModerationLogger
}

func NewContactHandler(
	blocklist BlocklistChecker,
	limiter SubmissionLimiter,
	visits VisitSource,
	relay SubmissionRelay,
	disposableDomains []string,
	ipConfig *pkghttp.IPConfig,
	logger *slog.Logger,
	moderation *pkglogger.ModerationLogger,
) *ContactHandler {
	disposable := make(map[string]struct{}, len(disposableDomains))
	for _, d := range disposableDomains {
		disposable[strings.ToLower(d)] = struct{}{}
	}
	return &ContactHandler{
		blocklist:  blocklist,
		limiter:    limiter,
		visits:     visits,
		relay:      relay,
		disposable: disposable,
		ipConfig:   ipConfig,
		logger:     logger,
		moderation: moderation,
	}
}

// ContactRequest represents the contact form payload
type ContactRequest struct {
	FirstName   string `json:"firstName" validate:"omitempty,max=100"`
	LastName    string `json:"lastName" validate:"omitempty,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Interest    string `json:"interest" validate:"omitempty,max=200"`
	Budget      string `json:"budget" validate:"omitempty,max=100"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// SubmitContact handles POST /api/contact
func (h *ContactHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := pkghttp.ExtractClientIP(r, h.ipConfig)

	if h.blocklist.IsBlocked(ctx, ip) {
		h.moderation.Log(pkglogger.ModerationEvent{
			EventType: "submission_rejected",
			IP:        ip,
			Success:   false,
			Reason:    "ip blocked",
		})
		pkghttp.WriteForbidden(w, msgBlocked)
		return
	}

	decision := h.limiter.Allow(ctx, ip)
	if !decision.Allowed {
		if decision.RetryAfter > 0 {
			seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
		pkghttp.WriteTooManyRequests(w, msgRateLimited)
		return
	}

	var req ContactRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if h.isDisposable(req.Email) {
		pkghttp.WriteBadRequest(w, "Email domain is not allowed")
		return
	}

	sub := models.ContactSubmission{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Interest:    req.Interest,
		Budget:      req.Budget,
		Description: req.Description,
	}
	ref := uuid.NewString()

	// Best-effort: absence of a correlated visit is valid and expected.
	visit := h.visits.LatestVisit(ctx, ip)

	// Relay failure is an operational concern, not the submitter's: log it
	// and still accept the submission.
	if err := h.relay.Notify(ctx, sub, ip, ref, visit); err != nil {
		h.logger.Warn("failed to relay contact submission",
			slog.String("ref", ref),
			slog.String("ip", ip),
			slog.Any("error", err),
		)
	}

	h.moderation.Log(pkglogger.ModerationEvent{
		EventType: "submission_accepted",
		IP:        ip,
		Success:   true,
		Reason:    pkglogger.SanitizedEmail(sub.Email),
	})

	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *ContactHandler) isDisposable(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	_, found := h.disposable[domain]
	return found
}
