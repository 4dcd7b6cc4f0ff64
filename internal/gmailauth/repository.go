package gmailauth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StoredTokens is the Gmail OAuth state kept on the user row.
type StoredTokens struct {
	RefreshToken string
	AccessToken  string
	GmailAddress string
}

// Repository handles Gmail token persistence on the users table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a Gmail token repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetTokens returns the stored Gmail tokens for a user.
func (r *Repository) GetTokens(ctx context.Context, userID uuid.UUID) (StoredTokens, error) {
	const q = `SELECT COALESCE(gmail_refresh_token,''), COALESCE(gmail_access_token,''), COALESCE(gmail_address,'')
		FROM users WHERE id = $1`
	var t StoredTokens
	err := r.pool.QueryRow(ctx, q, userID).Scan(&t.RefreshToken, &t.AccessToken, &t.GmailAddress)
	return t, err
}

// SaveTokens stores tokens after a successful consent exchange. An empty
// refresh token keeps the previous one (Google only issues it on the first
// consent unless re-consent is forced).
func (r *Repository) SaveTokens(ctx context.Context, userID uuid.UUID, refreshToken, accessToken, gmailAddress string) error {
	const q = `UPDATE users SET
		gmail_refresh_token = COALESCE(NULLIF($1,''), gmail_refresh_token),
		gmail_access_token = $2,
		gmail_address = $3,
		updated_at = NOW()
		WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, refreshToken, accessToken, gmailAddress, userID)
	return err
}

// ClearTokens disconnects Gmail for a user.
func (r *Repository) ClearTokens(ctx context.Context, userID uuid.UUID) error {
	const q = `UPDATE users SET gmail_refresh_token = NULL, gmail_access_token = NULL, gmail_address = NULL, updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, userID)
	return err
}
