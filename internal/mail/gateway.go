package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrAuthExpired signals that the user's Gmail credentials were revoked or
// are stale beyond refresh. Callers should prompt a reconnect.
var ErrAuthExpired = errors.New("gmail authorization expired")

// Credentials are the per-call credentials for one user. They are passed
// explicitly on every send; the gateway holds no per-user state.
type Credentials struct {
	AccessToken string
}

// Gateway transmits a transport-encoded message through the user's mail
// account and returns the provider message id.
type Gateway interface {
	Send(ctx context.Context, creds Credentials, raw string) (string, error)
}

// GmailGateway sends through the Gmail API.
type GmailGateway struct {
	logger *zap.Logger
}

// NewGmailGateway creates a Gmail send gateway.
func NewGmailGateway(logger *zap.Logger) *GmailGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GmailGateway{logger: logger}
}

// Send posts the raw message via users.messages.send as the token owner.
func (g *GmailGateway) Send(ctx context.Context, creds Credentials, raw string) (string, error) {
	if creds.AccessToken == "" {
		return "", ErrAuthExpired
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return "", fmt.Errorf("gmail service: %w", err)
	}

	res, err := svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		if IsAuthError(err) {
			return "", ErrAuthExpired
		}
		return "", fmt.Errorf("gmail send: %w", err)
	}

	g.logger.Debug("gmail message sent", zap.String("message_id", res.Id))
	return res.Id, nil
}

// IsAuthError reports whether err means the Gmail grant is gone (401 from
// the API or an invalid_grant refresh failure).
func IsAuthError(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized {
		return true
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return true
	}
	return strings.Contains(err.Error(), "invalid_grant")
}
