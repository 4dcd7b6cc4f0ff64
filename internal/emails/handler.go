package emails

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ib-outreach/backend/internal/auth"
	"github.com/ib-outreach/backend/internal/gmailauth"
	"github.com/ib-outreach/backend/internal/mail"
	"github.com/ib-outreach/backend/internal/models"
	"github.com/ib-outreach/backend/internal/profile"
	"github.com/ib-outreach/backend/internal/templates"
	"github.com/ib-outreach/backend/pkg/response"
)

// Handler serves immediate send, history, stats and scheduling endpoints.
type Handler struct {
	repo     *Repository
	gateway  mail.Gateway
	creds    CredentialSource
	profiles ProfileSource
	contacts ContactMarker
	logger   *zap.Logger
}

// NewHandler creates an email handler.
func NewHandler(repo *Repository, gateway mail.Gateway, creds CredentialSource, profiles ProfileSource, contacts ContactMarker, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, gateway: gateway, creds: creds, profiles: profiles, contacts: contacts, logger: logger}
}

// SendRequest is the immediate-send payload.
type SendRequest struct {
	To               string           `json:"to" binding:"required,email"`
	Subject          string           `json:"subject" binding:"required"`
	Body             string           `json:"body" binding:"required"`
	Variables        models.Variables `json:"variables"`
	TemplateID       *uuid.UUID       `json:"template_id"`
	ContactID        *uuid.UUID       `json:"contact_id"`
	AttachResume     bool             `json:"attach_resume"`
	IncludeSignature bool             `json:"include_signature"`
}

// needsReauth sends the 401 shape the frontend uses to trigger the Gmail
// reconnect flow.
func needsReauth(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success":      false,
		"error":        "gmail authorization required",
		"needs_reauth": true,
	})
}

// Send handles POST /api/emails/send. The message goes out now; a sent
// record is written on success.
func (h *Handler) Send(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "to, subject and body are required")
		return
	}

	ctx := c.Request.Context()

	creds, err := h.creds.Credentials(ctx, userID)
	if errors.Is(err, gmailauth.ErrNotConnected) || errors.Is(err, mail.ErrAuthExpired) {
		needsReauth(c)
		return
	}
	if err != nil {
		h.logger.Error("gmail credentials", zap.Error(err))
		response.Internal(c, "failed to load gmail credentials")
		return
	}

	subject := templates.Fill(req.Subject, req.Variables)
	body := templates.Fill(req.Body, req.Variables)

	if req.IncludeSignature {
		sig, err := h.profiles.Signature(ctx, userID)
		if err != nil {
			h.logger.Error("load signature", zap.Error(err))
			response.Internal(c, "failed to load signature")
			return
		}
		if sig != "" {
			body += "\n\n" + sig
		}
	}

	var att *mail.Attachment
	if req.AttachResume {
		att, err = h.profiles.ResumeAttachment(ctx, userID)
		if errors.Is(err, profile.ErrNoResume) {
			response.BadRequest(c, "no resume on file; upload one before attaching")
			return
		}
		if err != nil {
			h.logger.Error("load resume", zap.Error(err))
			response.Internal(c, "failed to load resume")
			return
		}
	}

	raw, err := mail.Compose(req.To, subject, mail.HTMLBody(body), mail.ContentTypeHTML, att)
	if err != nil {
		var verr *mail.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Reason)
			return
		}
		h.logger.Error("compose message", zap.Error(err))
		response.Internal(c, "failed to compose message")
		return
	}

	msgID, err := h.gateway.Send(ctx, creds, mail.EncodeForTransport(raw))
	if errors.Is(err, mail.ErrAuthExpired) {
		needsReauth(c)
		return
	}
	if err != nil {
		h.logger.Error("send email", zap.String("to", req.To), zap.Error(err))
		response.Internal(c, "failed to send email")
		return
	}

	record := &models.SentEmail{
		UserID:        userID,
		TemplateID:    req.TemplateID,
		Recipient:     req.To,
		Subject:       subject,
		Body:          body,
		VariablesUsed: req.Variables,
		SentAt:        time.Now().UTC(),
	}
	if err := h.repo.RecordSent(ctx, record); err != nil {
		h.logger.Error("record sent email", zap.Error(err))
	}

	if h.contacts != nil && req.ContactID != nil {
		if err := h.contacts.MarkEmailed(ctx, *req.ContactID); err != nil {
			h.logger.Warn("mark contact emailed", zap.Error(err))
		}
	}

	h.logger.Info("email sent", zap.String("to", req.To), zap.String("message_id", msgID))
	response.OK(c, gin.H{"message_id": msgID, "sent_email": record})
}

// ListSent handles GET /api/emails/sent.
func (h *Handler) ListSent(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	list, err := h.repo.ListSent(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.Error("list sent emails", zap.Error(err))
		response.Internal(c, "failed to list sent emails")
		return
	}
	response.OK(c, list)
}

// GetStats handles GET /api/emails/stats.
func (h *Handler) GetStats(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	stats, err := h.repo.GetStats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("email stats", zap.Error(err))
		response.Internal(c, "failed to load stats")
		return
	}
	response.OK(c, stats)
}

// ScheduleRequest is the schedule payload. ScheduledFor must be in the
// future; substitution is deferred to dispatch time.
type ScheduleRequest struct {
	To               string           `json:"to" binding:"required,email"`
	Subject          string           `json:"subject" binding:"required"`
	Body             string           `json:"body" binding:"required"`
	ScheduledFor     time.Time        `json:"scheduled_for" binding:"required"`
	Variables        models.Variables `json:"variables"`
	TemplateID       *uuid.UUID       `json:"template_id"`
	ContactID        *uuid.UUID       `json:"contact_id"`
	AttachResume     bool             `json:"attach_resume"`
	IncludeSignature bool             `json:"include_signature"`
}

// Schedule handles POST /api/emails/schedule.
func (h *Handler) Schedule(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "to, subject, body and scheduled_for are required")
		return
	}
	if !req.ScheduledFor.After(time.Now()) {
		response.BadRequest(c, "scheduled_for must be in the future")
		return
	}

	e := &models.ScheduledEmail{
		UserID:           userID,
		ToEmail:          req.To,
		Subject:          req.Subject,
		Body:             req.Body,
		ScheduledFor:     req.ScheduledFor.UTC(),
		TemplateID:       req.TemplateID,
		Variables:        req.Variables,
		AttachResume:     req.AttachResume,
		IncludeSignature: req.IncludeSignature,
		ContactID:        req.ContactID,
	}
	if err := h.repo.Schedule(c.Request.Context(), e); err != nil {
		h.logger.Error("schedule email", zap.Error(err))
		response.Internal(c, "failed to schedule email")
		return
	}
	response.Created(c, e)
}

// ListScheduled handles GET /api/emails/scheduled.
func (h *Handler) ListScheduled(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	list, err := h.repo.ListScheduled(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list scheduled emails", zap.Error(err))
		response.Internal(c, "failed to list scheduled emails")
		return
	}
	response.OK(c, list)
}

// Cancel handles DELETE /api/emails/scheduled/:id. Only pending emails can
// be cancelled; anything already claimed or finished is left alone.
func (h *Handler) Cancel(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid scheduled email id")
		return
	}

	ok, err := h.repo.Cancel(c.Request.Context(), userID, id)
	if err != nil {
		h.logger.Error("cancel scheduled email", zap.Error(err))
		response.Internal(c, "failed to cancel scheduled email")
		return
	}
	if !ok {
		response.NotFound(c, "no pending scheduled email with that id")
		return
	}
	response.OK(c, gin.H{"cancelled": true})
}
