// Package gmailauth manages the per-user Gmail OAuth connection: the
// consent flow, token persistence and access-token refresh.
package gmailauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/ib-outreach/backend/config"
	"github.com/ib-outreach/backend/internal/mail"
	"github.com/ib-outreach/backend/pkg/redis"
)

// ErrNotConnected means the user never completed the Gmail consent flow.
var ErrNotConnected = errors.New("gmail not connected")

func accessTokenKey(userID uuid.UUID) string {
	return redis.Key("gmail", "access", userID.String())
}

// NewOAuthConfig builds the OAuth client used for the Gmail connect flow.
func NewOAuthConfig(cfg config.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			gmail.GmailSendScope,
			"https://www.googleapis.com/auth/userinfo.email",
		},
		Endpoint: google.Endpoint,
	}
}

// TokenProvider resolves fresh per-user send credentials. Refreshed access
// tokens are cached in Redis until shortly before expiry so concurrent
// sends for the same user don't all hit the token endpoint.
type TokenProvider struct {
	oauth  *oauth2.Config
	repo   *Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewTokenProvider creates a token provider.
func NewTokenProvider(oauth *oauth2.Config, repo *Repository, rdb *redis.Client, logger *zap.Logger) *TokenProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenProvider{oauth: oauth, repo: repo, rdb: rdb, logger: logger}
}

// Credentials returns send credentials for the user. Returns
// ErrNotConnected when no Gmail account is linked and mail.ErrAuthExpired
// when the stored grant has been revoked.
func (p *TokenProvider) Credentials(ctx context.Context, userID uuid.UUID) (mail.Credentials, error) {
	key := accessTokenKey(userID)
	if p.rdb != nil {
		if tok, err := p.rdb.Get(ctx, key).Result(); err == nil && tok != "" {
			return mail.Credentials{AccessToken: tok}, nil
		}
	}

	stored, err := p.repo.GetTokens(ctx, userID)
	if err != nil {
		return mail.Credentials{}, fmt.Errorf("load gmail tokens: %w", err)
	}
	if stored.RefreshToken == "" {
		if stored.AccessToken == "" {
			return mail.Credentials{}, ErrNotConnected
		}
		// No refresh token on file; use the stored access token as-is and
		// let a 401 at send time surface as mail.ErrAuthExpired.
		return mail.Credentials{AccessToken: stored.AccessToken}, nil
	}

	tok, err := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: stored.RefreshToken}).Token()
	if err != nil {
		if mail.IsAuthError(err) {
			return mail.Credentials{}, mail.ErrAuthExpired
		}
		return mail.Credentials{}, fmt.Errorf("refresh gmail token: %w", err)
	}

	if p.rdb != nil {
		if ttl := time.Until(tok.Expiry) - 30*time.Second; ttl > 0 {
			if err := p.rdb.Set(ctx, key, tok.AccessToken, ttl).Err(); err != nil {
				p.logger.Warn("access token cache write failed", zap.Error(err))
			}
		}
	}
	return mail.Credentials{AccessToken: tok.AccessToken}, nil
}

// Invalidate drops the cached access token for a user, e.g. on disconnect.
func (p *TokenProvider) Invalidate(ctx context.Context, userID uuid.UUID) {
	if p.rdb == nil {
		return
	}
	if err := p.rdb.Del(ctx, accessTokenKey(userID)).Err(); err != nil {
		p.logger.Warn("access token cache delete failed", zap.Error(err))
	}
}
