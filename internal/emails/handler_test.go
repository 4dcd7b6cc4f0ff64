package emails

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ib-outreach/backend/internal/auth"
	"github.com/ib-outreach/backend/internal/gmailauth"
	"github.com/ib-outreach/backend/internal/profile"
)

func sendContext(t *testing.T, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/emails/send", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(auth.ContextUserID, uuid.New())
	return c, w
}

const sendBodyWithResume = `{"to":"analyst@bank.example.com","subject":"Intro","body":"Hi","attach_resume":true}`

func TestSendMissingResumeIsBadRequest(t *testing.T) {
	h := NewHandler(nil, &fakeGateway{}, &fakeCreds{}, &fakeProfiles{resumeErr: profile.ErrNoResume}, nil, zap.NewNop())

	c, w := sendContext(t, sendBodyWithResume)
	h.Send(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "no resume on file") {
		t.Errorf("body = %s, want missing-resume message", w.Body.String())
	}
}

func TestSendResumeStorageFailureIsInternal(t *testing.T) {
	h := NewHandler(nil, &fakeGateway{}, &fakeCreds{}, &fakeProfiles{resumeErr: errors.New("s3 get: timeout")}, nil, zap.NewNop())

	c, w := sendContext(t, sendBodyWithResume)
	h.Send(c)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "no resume on file") {
		t.Errorf("storage failure reported as missing resume: %s", w.Body.String())
	}
}

func TestSendWithoutGmailGrantNeedsReauth(t *testing.T) {
	h := NewHandler(nil, &fakeGateway{}, &fakeCreds{err: gmailauth.ErrNotConnected}, &fakeProfiles{}, nil, zap.NewNop())

	c, w := sendContext(t, `{"to":"analyst@bank.example.com","subject":"Intro","body":"Hi"}`)
	h.Send(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	var resp struct {
		NeedsReauth bool `json:"needs_reauth"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.NeedsReauth {
		t.Errorf("needs_reauth = false, want true: %s", w.Body.String())
	}
}
