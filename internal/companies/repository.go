package companies

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ib-outreach/backend/internal/models"
)

// Repository handles company persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a company repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const companyColumns = `id, user_id, name, COALESCE(industry,''), COALESCE(location,''), COALESCE(website,''), COALESCE(notes,''), created_at, updated_at`

func scanCompany(row interface{ Scan(...any) error }) (*models.Company, error) {
	var co models.Company
	err := row.Scan(&co.ID, &co.UserID, &co.Name, &co.Industry, &co.Location, &co.Website, &co.Notes, &co.CreatedAt, &co.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &co, nil
}

// Create inserts a new company.
func (r *Repository) Create(ctx context.Context, co *models.Company) error {
	const q = `INSERT INTO companies (user_id, name, industry, location, website, notes)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), NULLIF($6,''))
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, co.UserID, co.Name, co.Industry, co.Location, co.Website, co.Notes).
		Scan(&co.ID, &co.CreatedAt, &co.UpdatedAt)
}

// GetByID returns a company owned by the user.
func (r *Repository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Company, error) {
	const q = `SELECT ` + companyColumns + ` FROM companies WHERE id = $1 AND user_id = $2`
	return scanCompany(r.pool.QueryRow(ctx, q, id, userID))
}

// List returns all companies for a user, newest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]models.Company, error) {
	const q = `SELECT ` + companyColumns + ` FROM companies WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Company
	for rows.Next() {
		co, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *co)
	}
	return list, rows.Err()
}

// Update updates company fields. Returns false when the company does not
// exist or is not owned by the user.
func (r *Repository) Update(ctx context.Context, userID uuid.UUID, co *models.Company) (bool, error) {
	const q = `UPDATE companies SET name = $1, industry = NULLIF($2,''), location = NULLIF($3,''), website = NULLIF($4,''), notes = NULLIF($5,''), updated_at = NOW()
		WHERE id = $6 AND user_id = $7`
	tag, err := r.pool.Exec(ctx, q, co.Name, co.Industry, co.Location, co.Website, co.Notes, co.ID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes a company owned by the user.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	const q = `DELETE FROM companies WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, q, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
