package contacts

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ib-outreach/backend/internal/models"
)

// Repository handles contact and interaction persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a contact repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contactColumns = `id, user_id, company_id, name, email, COALESCE(title,''), COALESCE("group",''), COALESCE(linkedin,''), status, COALESCE(notes,''), created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (*models.Contact, error) {
	var ct models.Contact
	err := row.Scan(&ct.ID, &ct.UserID, &ct.CompanyID, &ct.Name, &ct.Email, &ct.Title, &ct.Group, &ct.LinkedIn, &ct.Status, &ct.Notes, &ct.CreatedAt, &ct.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

// Create inserts a new contact in not_contacted status.
func (r *Repository) Create(ctx context.Context, ct *models.Contact) error {
	const q = `INSERT INTO contacts (user_id, company_id, name, email, title, "group", linkedin, notes)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), NULLIF($8,''))
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, ct.UserID, ct.CompanyID, ct.Name, ct.Email, ct.Title, ct.Group, ct.LinkedIn, ct.Notes).
		Scan(&ct.ID, &ct.Status, &ct.CreatedAt, &ct.UpdatedAt)
}

// GetByID returns a contact owned by the user.
func (r *Repository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Contact, error) {
	const q = `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND user_id = $2`
	return scanContact(r.pool.QueryRow(ctx, q, id, userID))
}

// List returns all contacts for a user, newest first. companyID narrows to
// one company when non-nil.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) ([]models.Contact, error) {
	q := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id = $1`
	args := []interface{}{userID}
	if companyID != nil {
		q += ` AND company_id = $2`
		args = append(args, *companyID)
	}
	rows, err := r.pool.Query(ctx, q+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Contact
	for rows.Next() {
		ct, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ct)
	}
	return list, rows.Err()
}

// Update updates contact fields including status.
func (r *Repository) Update(ctx context.Context, userID uuid.UUID, ct *models.Contact) (bool, error) {
	const q = `UPDATE contacts SET company_id = $1, name = $2, email = $3, title = NULLIF($4,''), "group" = NULLIF($5,''), linkedin = NULLIF($6,''), status = $7, notes = NULLIF($8,''), updated_at = NOW()
		WHERE id = $9 AND user_id = $10`
	tag, err := r.pool.Exec(ctx, q, ct.CompanyID, ct.Name, ct.Email, ct.Title, ct.Group, ct.LinkedIn, ct.Status, ct.Notes, ct.ID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes a contact owned by the user.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	const q = `DELETE FROM contacts WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, q, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkEmailed bumps a contact from not_contacted to emailed. A single
// conditional update: contacts already past not_contacted are untouched.
func (r *Repository) MarkEmailed(ctx context.Context, contactID uuid.UUID) error {
	const q = `UPDATE contacts SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	_, err := r.pool.Exec(ctx, q, models.ContactStatusEmailed, contactID, models.ContactStatusNotContacted)
	return err
}

// AddInteraction appends an entry to a contact's history.
func (r *Repository) AddInteraction(ctx context.Context, in *models.Interaction) error {
	const q = `INSERT INTO interactions (user_id, contact_id, kind, summary, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, in.UserID, in.ContactID, in.Kind, in.Summary, in.OccurredAt).
		Scan(&in.ID, &in.CreatedAt)
}

// ListInteractions returns a contact's history, newest first.
func (r *Repository) ListInteractions(ctx context.Context, userID, contactID uuid.UUID) ([]models.Interaction, error) {
	const q = `SELECT id, user_id, contact_id, kind, summary, occurred_at, created_at
		FROM interactions WHERE user_id = $1 AND contact_id = $2 ORDER BY occurred_at DESC`
	rows, err := r.pool.Query(ctx, q, userID, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Interaction
	for rows.Next() {
		var in models.Interaction
		if err := rows.Scan(&in.ID, &in.UserID, &in.ContactID, &in.Kind, &in.Summary, &in.OccurredAt, &in.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, in)
	}
	return list, rows.Err()
}
