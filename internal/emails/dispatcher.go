package emails

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ib-outreach/backend/config"
	"github.com/ib-outreach/backend/internal/mail"
	"github.com/ib-outreach/backend/internal/models"
	"github.com/ib-outreach/backend/internal/templates"
	"github.com/ib-outreach/backend/pkg/metrics"
)

// Store is the scheduled-email persistence the dispatcher drives.
type Store interface {
	FindDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledEmail, error)
	TryClaim(ctx context.Context, id uuid.UUID) (bool, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	RecordSent(ctx context.Context, e *models.SentEmail) error
	ReclaimStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

// CredentialSource yields per-user Gmail credentials at send time.
type CredentialSource interface {
	Credentials(ctx context.Context, userID uuid.UUID) (mail.Credentials, error)
}

// ProfileSource provides the sender's signature and resume attachment.
type ProfileSource interface {
	Signature(ctx context.Context, userID uuid.UUID) (string, error)
	ResumeAttachment(ctx context.Context, userID uuid.UUID) (*mail.Attachment, error)
}

// ContactMarker records that a contact has been emailed.
type ContactMarker interface {
	MarkEmailed(ctx context.Context, contactID uuid.UUID) error
}

// Dispatcher polls for due scheduled emails and sends each exactly once.
// Multiple dispatchers may share a database; the conditional claim update
// guarantees a record is sent by at most one of them.
type Dispatcher struct {
	store    Store
	gateway  mail.Gateway
	creds    CredentialSource
	profiles ProfileSource
	contacts ContactMarker
	cfg      config.DispatchConfig
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher. contacts may be nil when contact
// status tracking is not wanted.
func NewDispatcher(store Store, gateway mail.Gateway, creds CredentialSource, profiles ProfileSource, contacts ContactMarker, cfg config.DispatchConfig, logger *zap.Logger) *Dispatcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.SendsPerSecond <= 0 {
		cfg.SendsPerSecond = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		store:    store,
		gateway:  gateway,
		creds:    creds,
		profiles: profiles,
		contacts: contacts,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.SendsPerSecond), 1),
		logger:   logger,
	}
}

// Run polls until ctx is cancelled. The first pass happens immediately.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatcher started",
		zap.Duration("poll_interval", d.cfg.PollInterval),
		zap.Int("sends_per_second", d.cfg.SendsPerSecond))

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	d.Pass(ctx)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopped")
			return
		case <-ticker.C:
			d.Pass(ctx)
		}
	}
}

// Pass runs one dispatch cycle: reclaim stale claims if configured, then
// find due emails and process each independently. A failure on one record
// never stops the rest of the batch.
func (d *Dispatcher) Pass(ctx context.Context) {
	metrics.DispatchPasses.Inc()

	if d.cfg.ReclaimAfter > 0 {
		n, err := d.store.ReclaimStale(ctx, d.cfg.ReclaimAfter)
		if err != nil {
			d.logger.Error("reclaim stale claims", zap.Error(err))
		} else if n > 0 {
			d.logger.Warn("reclaimed stale claims", zap.Int64("count", n))
		}
	}

	due, err := d.store.FindDue(ctx, time.Now(), 50)
	if err != nil {
		d.logger.Error("find due emails", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}
	d.logger.Info("processing due emails", zap.Int("count", len(due)))

	for i := range due {
		if ctx.Err() != nil {
			return
		}
		d.process(ctx, &due[i])
	}
}

// process claims and sends one scheduled email. Every early return after a
// successful claim goes through fail() so the record never sticks in sending.
func (d *Dispatcher) process(ctx context.Context, e *models.ScheduledEmail) {
	claimed, err := d.store.TryClaim(ctx, e.ID)
	if err != nil {
		d.logger.Error("claim scheduled email", zap.String("id", e.ID.String()), zap.Error(err))
		return
	}
	if !claimed {
		metrics.ClaimConflicts.Inc()
		return
	}

	creds, err := d.creds.Credentials(ctx, e.UserID)
	if err != nil {
		d.fail(ctx, e, "gmail authorization unavailable: "+err.Error())
		return
	}

	subject := templates.Fill(e.Subject, e.Variables)
	content := templates.Fill(e.Body, e.Variables)

	if e.IncludeSignature {
		sig, err := d.profiles.Signature(ctx, e.UserID)
		if err != nil {
			d.fail(ctx, e, "load signature: "+err.Error())
			return
		}
		if sig != "" {
			content += "\n\n" + sig
		}
	}

	var att *mail.Attachment
	if e.AttachResume {
		att, err = d.profiles.ResumeAttachment(ctx, e.UserID)
		if err != nil {
			d.fail(ctx, e, "load resume: "+err.Error())
			return
		}
	}

	raw, err := mail.Compose(e.ToEmail, subject, content, mail.ContentTypePlain, att)
	if err != nil {
		d.fail(ctx, e, "compose: "+err.Error())
		return
	}

	if err := d.limiter.Wait(ctx); err != nil {
		d.fail(ctx, e, "rate limit wait: "+err.Error())
		return
	}

	msgID, err := d.gateway.Send(ctx, creds, mail.EncodeForTransport(raw))
	if err != nil {
		d.fail(ctx, e, err.Error())
		return
	}

	sentAt := time.Now().UTC()
	if err := d.store.MarkSent(ctx, e.ID, sentAt); err != nil {
		d.logger.Error("mark sent", zap.String("id", e.ID.String()), zap.Error(err))
	}
	metrics.EmailsSent.Inc()

	record := &models.SentEmail{
		UserID:        e.UserID,
		TemplateID:    e.TemplateID,
		Recipient:     e.ToEmail,
		Subject:       subject,
		Body:          content,
		VariablesUsed: e.Variables,
		SentAt:        sentAt,
	}
	if err := d.store.RecordSent(ctx, record); err != nil {
		d.logger.Error("record sent email", zap.String("id", e.ID.String()), zap.Error(err))
	}

	if d.contacts != nil && e.ContactID != nil {
		if err := d.contacts.MarkEmailed(ctx, *e.ContactID); err != nil {
			d.logger.Warn("mark contact emailed", zap.String("contact_id", e.ContactID.String()), zap.Error(err))
		}
	}

	d.logger.Info("scheduled email sent",
		zap.String("id", e.ID.String()),
		zap.String("to", e.ToEmail),
		zap.String("message_id", msgID))
}

func (d *Dispatcher) fail(ctx context.Context, e *models.ScheduledEmail, reason string) {
	metrics.EmailsFailed.Inc()
	d.logger.Error("scheduled email failed",
		zap.String("id", e.ID.String()),
		zap.String("to", e.ToEmail),
		zap.String("reason", reason))
	if err := d.store.MarkFailed(ctx, e.ID, reason); err != nil {
		d.logger.Error("mark failed", zap.String("id", e.ID.String()), zap.Error(err))
	}
}
