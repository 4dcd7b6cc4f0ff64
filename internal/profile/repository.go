package profile

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResumeInfo is the stored resume metadata for a user.
type ResumeInfo struct {
	Key      string `json:"-"`
	Filename string `json:"filename"`
	Mimetype string `json:"mimetype"`
}

// Repository reads and writes the profile fields on users.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a profile repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetSignature returns the user's signature HTML, empty when unset.
func (r *Repository) GetSignature(ctx context.Context, userID uuid.UUID) (string, error) {
	var sig string
	const q = `SELECT COALESCE(signature_html, '') FROM users WHERE id = $1`
	err := r.pool.QueryRow(ctx, q, userID).Scan(&sig)
	return sig, err
}

// SetSignature stores the user's signature HTML.
func (r *Repository) SetSignature(ctx context.Context, userID uuid.UUID, signature string) error {
	const q = `UPDATE users SET signature_html = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, signature, userID)
	return err
}

// GetResumeInfo returns the user's resume metadata. All fields are empty
// when no resume is on file.
func (r *Repository) GetResumeInfo(ctx context.Context, userID uuid.UUID) (*ResumeInfo, error) {
	var info ResumeInfo
	const q = `SELECT COALESCE(resume_key, ''), COALESCE(resume_filename, ''), COALESCE(resume_mimetype, '')
		FROM users WHERE id = $1`
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&info.Key, &info.Filename, &info.Mimetype); err != nil {
		return nil, err
	}
	return &info, nil
}

// SetResumeInfo stores the resume object key and metadata.
func (r *Repository) SetResumeInfo(ctx context.Context, userID uuid.UUID, info ResumeInfo) error {
	const q = `UPDATE users SET resume_key = $1, resume_filename = $2, resume_mimetype = $3, updated_at = NOW()
		WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, info.Key, info.Filename, info.Mimetype, userID)
	return err
}

// ClearResumeInfo removes the resume metadata.
func (r *Repository) ClearResumeInfo(ctx context.Context, userID uuid.UUID) error {
	const q = `UPDATE users SET resume_key = NULL, resume_filename = NULL, resume_mimetype = NULL, updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, userID)
	return err
}
