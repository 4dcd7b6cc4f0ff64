package templates

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ib-outreach/backend/internal/models"
)

// Repository handles template persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a template repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const templateColumns = `id, user_id, name, subject, body, category, created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (*models.Template, error) {
	var t models.Template
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Subject, &t.Body, &t.Category, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new template.
func (r *Repository) Create(ctx context.Context, t *models.Template) error {
	const q = `INSERT INTO templates (user_id, name, subject, body, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, t.UserID, t.Name, t.Subject, t.Body, t.Category).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns a template owned by the user.
func (r *Repository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Template, error) {
	const q = `SELECT ` + templateColumns + ` FROM templates WHERE id = $1 AND user_id = $2`
	return scanTemplate(r.pool.QueryRow(ctx, q, id, userID))
}

// List returns all templates for a user, newest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]models.Template, error) {
	const q = `SELECT ` + templateColumns + ` FROM templates WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	return list, rows.Err()
}

// Update updates a template owned by the user.
func (r *Repository) Update(ctx context.Context, userID uuid.UUID, t *models.Template) (bool, error) {
	const q = `UPDATE templates SET name = $1, subject = $2, body = $3, category = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6`
	tag, err := r.pool.Exec(ctx, q, t.Name, t.Subject, t.Body, t.Category, t.ID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes a template owned by the user.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	const q = `DELETE FROM templates WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, q, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
