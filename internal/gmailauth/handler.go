package gmailauth

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/ib-outreach/backend/internal/auth"
	"github.com/ib-outreach/backend/pkg/response"
)

// Handler handles the Gmail connect flow HTTP endpoints.
type Handler struct {
	oauth    *oauth2.Config
	repo     *Repository
	provider *TokenProvider
	logger   *zap.Logger
}

// NewHandler creates a Gmail connect handler.
func NewHandler(oauth *oauth2.Config, repo *Repository, provider *TokenProvider, logger *zap.Logger) *Handler {
	return &Handler{oauth: oauth, repo: repo, provider: provider, logger: logger}
}

// AuthURL handles GET /api/gmail/auth-url. The user ID rides in the OAuth
// state parameter so the public callback can attribute the grant.
func (h *Handler) AuthURL(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	url := h.oauth.AuthCodeURL(userID.String(), oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	response.OK(c, gin.H{"auth_url": url})
}

// Callback handles GET /api/gmail/callback. Public: Google redirects the
// browser here. Responds with a small self-closing HTML page.
func (h *Handler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(callbackErrorPage("no authorization code received")))
		return
	}
	userID, err := uuid.Parse(c.Query("state"))
	if err != nil {
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(callbackErrorPage("invalid state")))
		return
	}

	ctx := c.Request.Context()
	tok, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		h.logger.Error("gmail code exchange failed", zap.Error(err))
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(callbackErrorPage("token exchange failed")))
		return
	}

	// Resolve which Gmail address the grant belongs to.
	svc, err := goauth2.NewService(ctx, option.WithTokenSource(h.oauth.TokenSource(ctx, tok)))
	var gmailAddress string
	if err == nil {
		if info, uerr := svc.Userinfo.Get().Context(ctx).Do(); uerr == nil {
			gmailAddress = info.Email
		}
	}

	if err := h.repo.SaveTokens(ctx, userID, tok.RefreshToken, tok.AccessToken, gmailAddress); err != nil {
		h.logger.Error("save gmail tokens failed", zap.Error(err), zap.String("user_id", userID.String()))
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(callbackErrorPage("could not save tokens")))
		return
	}
	h.provider.Invalidate(ctx, userID)

	h.logger.Info("gmail connected", zap.String("user_id", userID.String()), zap.String("gmail_address", gmailAddress))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(callbackSuccessPage(gmailAddress)))
}

// Status handles GET /api/gmail/status.
func (h *Handler) Status(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	tokens, err := h.repo.GetTokens(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load gmail status")
		return
	}
	connected := tokens.RefreshToken != ""
	var addr interface{}
	if connected {
		addr = tokens.GmailAddress
	}
	response.OK(c, gin.H{"connected": connected, "gmail_address": addr})
}

// Disconnect handles POST /api/gmail/disconnect.
func (h *Handler) Disconnect(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	if err := h.repo.ClearTokens(c.Request.Context(), userID); err != nil {
		response.Internal(c, "failed to disconnect gmail")
		return
	}
	h.provider.Invalidate(c.Request.Context(), userID)
	response.OK(c, gin.H{"disconnected": true})
}

func callbackSuccessPage(gmailAddress string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Gmail Connected</title></head>
<body style="font-family: Arial, sans-serif; text-align: center; padding: 50px;">
  <h1 style="color: #4CAF50;">Gmail Connected Successfully</h1>
  <p>Connected: %s</p>
  <p>You can close this window and return to the app.</p>
  <script>setTimeout(function() { window.close(); }, 3000);</script>
</body>
</html>`, gmailAddress)
}

func callbackErrorPage(msg string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; text-align: center; padding: 50px;">
  <h1 style="color: #f44336;">Error Connecting Gmail</h1>
  <p>%s</p>
</body>
</html>`, msg)
}
