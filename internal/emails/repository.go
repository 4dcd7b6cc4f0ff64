package emails

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ib-outreach/backend/internal/models"
	"github.com/ib-outreach/backend/pkg/redis"
)

// Stats summarises outreach activity for a user.
type Stats struct {
	TotalSent      int64 `json:"total_sent"`
	SentLast30Days int64 `json:"sent_last_30_days"`
	Pending        int64 `json:"pending"`
	Failed         int64 `json:"failed"`
}

const statsCacheTTL = 60 * time.Second

// Repository handles sent and scheduled email persistence.
type Repository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewRepository creates an email repository. rdb may be nil; stats
// caching is skipped in that case.
func NewRepository(pool *pgxpool.Pool, rdb *redis.Client) *Repository {
	return &Repository{pool: pool, rdb: rdb}
}

// RecordSent inserts a sent email record.
func (r *Repository) RecordSent(ctx context.Context, e *models.SentEmail) error {
	vars, err := json.Marshal(e.VariablesUsed)
	if err != nil {
		return fmt.Errorf("marshal variables: %w", err)
	}
	const q = `INSERT INTO sent_emails (user_id, template_id, recipient, subject, body, variables_used, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if e.SentAt.IsZero() {
		e.SentAt = time.Now().UTC()
	}
	return r.pool.QueryRow(ctx, q, e.UserID, e.TemplateID, e.Recipient, e.Subject, e.Body, vars, e.SentAt).
		Scan(&e.ID)
}

// ListSent returns sent emails for a user, newest first.
func (r *Repository) ListSent(ctx context.Context, userID uuid.UUID, limit int) ([]models.SentEmail, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `SELECT s.id, s.user_id, s.template_id, COALESCE(t.name, ''), s.recipient, s.subject, s.body, s.variables_used, s.sent_at
		FROM sent_emails s
		LEFT JOIN templates t ON t.id = s.template_id
		WHERE s.user_id = $1
		ORDER BY s.sent_at DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.SentEmail
	for rows.Next() {
		var e models.SentEmail
		var vars []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.TemplateID, &e.TemplateName, &e.Recipient, &e.Subject, &e.Body, &vars, &e.SentAt); err != nil {
			return nil, err
		}
		if len(vars) > 0 {
			if err := json.Unmarshal(vars, &e.VariablesUsed); err != nil {
				return nil, fmt.Errorf("unmarshal variables: %w", err)
			}
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func statsCacheKey(userID uuid.UUID) string {
	return redis.Key("stats", userID.String())
}

// GetStats returns outreach stats for a user, served from a short-lived
// cache when available.
func (r *Repository) GetStats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	if r.rdb != nil {
		if raw, err := r.rdb.Get(ctx, statsCacheKey(userID)).Bytes(); err == nil {
			var s Stats
			if json.Unmarshal(raw, &s) == nil {
				return &s, nil
			}
		}
	}

	var s Stats
	const q = `SELECT
		(SELECT COUNT(*) FROM sent_emails WHERE user_id = $1),
		(SELECT COUNT(*) FROM sent_emails WHERE user_id = $1 AND sent_at >= NOW() - INTERVAL '30 days'),
		(SELECT COUNT(*) FROM scheduled_emails WHERE user_id = $1 AND status = 'pending'),
		(SELECT COUNT(*) FROM scheduled_emails WHERE user_id = $1 AND status = 'failed')`
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&s.TotalSent, &s.SentLast30Days, &s.Pending, &s.Failed); err != nil {
		return nil, err
	}

	if r.rdb != nil {
		if raw, err := json.Marshal(&s); err == nil {
			r.rdb.Set(ctx, statsCacheKey(userID), raw, statsCacheTTL)
		}
	}
	return &s, nil
}

const scheduledColumns = `id, user_id, to_email, subject, body, scheduled_for, template_id, variables,
	attach_resume, include_signature, contact_id, status, sent_at, COALESCE(error_message, ''), created_at, updated_at`

func scanScheduled(row interface{ Scan(...any) error }) (*models.ScheduledEmail, error) {
	var e models.ScheduledEmail
	var vars []byte
	err := row.Scan(&e.ID, &e.UserID, &e.ToEmail, &e.Subject, &e.Body, &e.ScheduledFor, &e.TemplateID, &vars,
		&e.AttachResume, &e.IncludeSignature, &e.ContactID, &e.Status, &e.SentAt, &e.ErrorMessage, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &e.Variables); err != nil {
			return nil, fmt.Errorf("unmarshal variables: %w", err)
		}
	}
	return &e, nil
}

// Schedule inserts a new pending scheduled email.
func (r *Repository) Schedule(ctx context.Context, e *models.ScheduledEmail) error {
	vars, err := json.Marshal(e.Variables)
	if err != nil {
		return fmt.Errorf("marshal variables: %w", err)
	}
	const q = `INSERT INTO scheduled_emails
		(user_id, to_email, subject, body, scheduled_for, template_id, variables, attach_resume, include_signature, contact_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		e.UserID, e.ToEmail, e.Subject, e.Body, e.ScheduledFor, e.TemplateID, vars,
		e.AttachResume, e.IncludeSignature, e.ContactID).
		Scan(&e.ID, &e.Status, &e.CreatedAt, &e.UpdatedAt)
}

// ListScheduled returns a user's scheduled emails, soonest first.
func (r *Repository) ListScheduled(ctx context.Context, userID uuid.UUID) ([]models.ScheduledEmail, error) {
	const q = `SELECT ` + scheduledColumns + ` FROM scheduled_emails
		WHERE user_id = $1 ORDER BY scheduled_for ASC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.ScheduledEmail
	for rows.Next() {
		e, err := scanScheduled(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// FindDue returns pending emails whose scheduled time has passed.
func (r *Repository) FindDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledEmail, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + scheduledColumns + ` FROM scheduled_emails
		WHERE status = 'pending' AND scheduled_for <= $1
		ORDER BY scheduled_for ASC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, q, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.ScheduledEmail
	for rows.Next() {
		e, err := scanScheduled(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// TryClaim atomically moves a pending email to sending. It returns false
// when another worker already claimed it or it is no longer pending.
func (r *Repository) TryClaim(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE scheduled_emails SET status = 'sending', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkSent moves a sending email to sent and stamps sent_at.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	const q = `UPDATE scheduled_emails
		SET status = 'sent', sent_at = $1, error_message = NULL, updated_at = NOW()
		WHERE id = $2 AND status = 'sending'`
	_, err := r.pool.Exec(ctx, q, sentAt, id)
	return err
}

// MarkFailed moves a sending email to failed with a reason.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	if reason == "" {
		reason = "send failed"
	}
	const q = `UPDATE scheduled_emails
		SET status = 'failed', error_message = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'sending'`
	_, err := r.pool.Exec(ctx, q, reason, id)
	return err
}

// Cancel moves a user's pending email to cancelled. It returns false when
// the email does not exist, belongs to someone else, or already left pending.
func (r *Repository) Cancel(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	const q = `UPDATE scheduled_emails SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'pending'`
	tag, err := r.pool.Exec(ctx, q, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReclaimStale returns emails stuck in sending longer than maxAge back to
// pending. A crashed worker leaves claims behind; this sweep recovers them.
func (r *Repository) ReclaimStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	const q = `UPDATE scheduled_emails SET status = 'pending', updated_at = NOW()
		WHERE status = 'sending' AND updated_at < $1`
	tag, err := r.pool.Exec(ctx, q, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
