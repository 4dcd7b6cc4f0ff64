package emails

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ib-outreach/backend/config"
	"github.com/ib-outreach/backend/internal/mail"
	"github.com/ib-outreach/backend/internal/models"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.ScheduledEmail
	sent    []models.SentEmail
}

func newFakeStore(records ...*models.ScheduledEmail) *fakeStore {
	s := &fakeStore{records: make(map[uuid.UUID]*models.ScheduledEmail)}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *fakeStore) FindDue(_ context.Context, now time.Time, _ int) ([]models.ScheduledEmail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []models.ScheduledEmail
	for _, r := range s.records {
		if r.Status == models.ScheduledStatusPending && !r.ScheduledFor.After(now) {
			due = append(due, *r)
		}
	}
	return due, nil
}

func (s *fakeStore) TryClaim(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok || r.Status != models.ScheduledStatusPending {
		return false, nil
	}
	r.Status = models.ScheduledStatusSending
	return true, nil
}

func (s *fakeStore) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.records[id]
	r.Status = models.ScheduledStatusSent
	r.SentAt = &sentAt
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.records[id]
	r.Status = models.ScheduledStatusFailed
	r.ErrorMessage = reason
	return nil
}

func (s *fakeStore) RecordSent(_ context.Context, e *models.SentEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.New()
	s.sent = append(s.sent, *e)
	return nil
}

func (s *fakeStore) ReclaimStale(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

// Cancel mirrors Repository.Cancel: a single conditional transition that
// succeeds only while the record is still pending and owned by the user.
func (s *fakeStore) Cancel(_ context.Context, userID, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok || r.UserID != userID || r.Status != models.ScheduledStatusPending {
		return false, nil
	}
	r.Status = models.ScheduledStatusCancelled
	return true, nil
}

func (s *fakeStore) get(id uuid.UUID) models.ScheduledEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.records[id]
}

type fakeGateway struct {
	mu     sync.Mutex
	raws   []string
	failTo map[string]error
}

func (g *fakeGateway) Send(_ context.Context, _ mail.Credentials, raw string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", err
	}
	for to, ferr := range g.failTo {
		if strings.Contains(string(decoded), "To: "+to) {
			return "", ferr
		}
	}
	g.raws = append(g.raws, string(decoded))
	return "msg-" + uuid.NewString()[:8], nil
}

func (g *fakeGateway) sendCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.raws)
}

type fakeCreds struct{ err error }

func (f *fakeCreds) Credentials(context.Context, uuid.UUID) (mail.Credentials, error) {
	if f.err != nil {
		return mail.Credentials{}, f.err
	}
	return mail.Credentials{AccessToken: "token"}, nil
}

type fakeProfiles struct {
	signature string
	resume    *mail.Attachment
	resumeErr error
}

func (f *fakeProfiles) Signature(context.Context, uuid.UUID) (string, error) {
	return f.signature, nil
}

func (f *fakeProfiles) ResumeAttachment(context.Context, uuid.UUID) (*mail.Attachment, error) {
	if f.resumeErr != nil {
		return nil, f.resumeErr
	}
	return f.resume, nil
}

type fakeContacts struct {
	mu     sync.Mutex
	marked []uuid.UUID
}

func (f *fakeContacts) MarkEmailed(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	return nil
}

func testDispatchConfig() config.DispatchConfig {
	return config.DispatchConfig{PollInterval: time.Minute, SendsPerSecond: 1000}
}

func pendingEmail(due time.Time) *models.ScheduledEmail {
	return &models.ScheduledEmail{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		ToEmail:      "analyst@bank.example.com",
		Subject:      "Coffee chat with {{firm}}",
		Body:         "Hi {{name}},\n\nWould love to connect.",
		ScheduledFor: due,
		Variables:    models.Variables{"name": "Jordan", "firm": "Meridian"},
		Status:       models.ScheduledStatusPending,
	}
}

func TestDispatcherSendsDueEmail(t *testing.T) {
	contactID := uuid.New()
	e := pendingEmail(time.Now().Add(-time.Minute))
	e.ContactID = &contactID
	store := newFakeStore(e)
	gw := &fakeGateway{}
	contacts := &fakeContacts{}

	d := NewDispatcher(store, gw, &fakeCreds{}, &fakeProfiles{}, contacts, testDispatchConfig(), zap.NewNop())
	d.Pass(context.Background())

	if got := gw.sendCount(); got != 1 {
		t.Fatalf("send count = %d, want 1", got)
	}
	after := store.get(e.ID)
	if after.Status != models.ScheduledStatusSent {
		t.Errorf("status = %s, want sent", after.Status)
	}
	if after.SentAt == nil {
		t.Error("sent_at not stamped")
	}
	if len(store.sent) != 1 {
		t.Fatalf("sent records = %d, want 1", len(store.sent))
	}
	if store.sent[0].Subject != "Coffee chat with Meridian" {
		t.Errorf("recorded subject = %q, want variables filled", store.sent[0].Subject)
	}
	if len(contacts.marked) != 1 || contacts.marked[0] != contactID {
		t.Errorf("contact not marked emailed: %v", contacts.marked)
	}
	if !strings.Contains(gw.raws[0], "Subject: Coffee chat with Meridian") {
		t.Errorf("outgoing message missing filled subject:\n%s", gw.raws[0])
	}
	if !strings.Contains(gw.raws[0], "Hi Jordan,") {
		t.Errorf("outgoing message missing filled body:\n%s", gw.raws[0])
	}
}

func TestDispatcherConcurrentPassesSendOnce(t *testing.T) {
	e := pendingEmail(time.Now().Add(-time.Second))
	store := newFakeStore(e)
	gw := &fakeGateway{}

	d1 := NewDispatcher(store, gw, &fakeCreds{}, &fakeProfiles{}, nil, testDispatchConfig(), zap.NewNop())
	d2 := NewDispatcher(store, gw, &fakeCreds{}, &fakeProfiles{}, nil, testDispatchConfig(), zap.NewNop())

	var wg sync.WaitGroup
	for _, d := range []*Dispatcher{d1, d2} {
		wg.Add(1)
		go func(d *Dispatcher) {
			defer wg.Done()
			d.Pass(context.Background())
		}(d)
	}
	wg.Wait()

	if got := gw.sendCount(); got != 1 {
		t.Fatalf("send count = %d, want exactly 1", got)
	}
	if status := store.get(e.ID).Status; status != models.ScheduledStatusSent {
		t.Errorf("status = %s, want sent", status)
	}
}

func TestDispatcherLeavesFutureEmails(t *testing.T) {
	e := pendingEmail(time.Now().Add(time.Hour))
	store := newFakeStore(e)
	gw := &fakeGateway{}

	d := NewDispatcher(store, gw, &fakeCreds{}, &fakeProfiles{}, nil, testDispatchConfig(), zap.NewNop())
	d.Pass(context.Background())

	if got := gw.sendCount(); got != 0 {
		t.Fatalf("send count = %d, want 0", got)
	}
	if status := store.get(e.ID).Status; status != models.ScheduledStatusPending {
		t.Errorf("status = %s, want pending", status)
	}
}

func TestCancelOnlyWhilePending(t *testing.T) {
	ctx := context.Background()

	for _, status := range []models.ScheduledEmailStatus{
		models.ScheduledStatusSending,
		models.ScheduledStatusSent,
		models.ScheduledStatusFailed,
		models.ScheduledStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			e := pendingEmail(time.Now().Add(-time.Minute))
			e.Status = status
			store := newFakeStore(e)

			ok, err := store.Cancel(ctx, e.UserID, e.ID)
			if err != nil {
				t.Fatalf("Cancel: %v", err)
			}
			if ok {
				t.Errorf("cancel from %s succeeded, want refusal", status)
			}
			if got := store.get(e.ID).Status; got != status {
				t.Errorf("status = %s, want unchanged %s", got, status)
			}
		})
	}

	t.Run("pending", func(t *testing.T) {
		e := pendingEmail(time.Now().Add(-time.Minute))
		store := newFakeStore(e)

		ok, err := store.Cancel(ctx, e.UserID, e.ID)
		if err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if !ok {
			t.Fatal("cancel from pending refused, want success")
		}
		if got := store.get(e.ID).Status; got != models.ScheduledStatusCancelled {
			t.Fatalf("status = %s, want cancelled", got)
		}

		// Cancelled is terminal: a later due pass must not touch it.
		gw := &fakeGateway{}
		d := NewDispatcher(store, gw, &fakeCreds{}, &fakeProfiles{}, nil, testDispatchConfig(), zap.NewNop())
		d.Pass(ctx)
		if got := gw.sendCount(); got != 0 {
			t.Errorf("send count after cancel = %d, want 0", got)
		}
		if got := store.get(e.ID).Status; got != models.ScheduledStatusCancelled {
			t.Errorf("status after pass = %s, want cancelled", got)
		}
	})

	t.Run("other user", func(t *testing.T) {
		e := pendingEmail(time.Now().Add(-time.Minute))
		store := newFakeStore(e)

		ok, err := store.Cancel(ctx, uuid.New(), e.ID)
		if err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if ok {
			t.Error("cancel by another user succeeded, want refusal")
		}
		if got := store.get(e.ID).Status; got != models.ScheduledStatusPending {
			t.Errorf("status = %s, want pending", got)
		}
	})
}

func TestDispatcherIgnoresCancelledAndTerminal(t *testing.T) {
	cancelled := pendingEmail(time.Now().Add(-time.Minute))
	cancelled.Status = models.ScheduledStatusCancelled
	sent := pendingEmail(time.Now().Add(-time.Minute))
	sent.Status = models.ScheduledStatusSent
	store := newFakeStore(cancelled, sent)
	gw := &fakeGateway{}

	d := NewDispatcher(store, gw, &fakeCreds{}, &fakeProfiles{}, nil, testDispatchConfig(), zap.NewNop())
	d.Pass(context.Background())

	if got := gw.sendCount(); got != 0 {
		t.Fatalf("send count = %d, want 0", got)
	}
	if status := store.get(cancelled.ID).Status; status != models.ScheduledStatusCancelled {
		t.Errorf("cancelled status = %s, want unchanged", status)
	}
	if status := store.get(sent.ID).Status; status != models.ScheduledStatusSent {
		t.Errorf("sent status = %s, want unchanged", status)
	}
}

func TestDispatcherMarksFailedOnSendError(t *testing.T) {
	e := pendingEmail(time.Now().Add(-time.Minute))
	store := newFakeStore(e)
	gw := &fakeGateway{failTo: map[string]error{e.ToEmail: errors.New("smtp relay refused")}}

	d := NewDispatcher(store, gw, &fakeCreds{}, &fakeProfiles{}, nil, testDispatchConfig(), zap.NewNop())
	d.Pass(context.Background())

	after := store.get(e.ID)
	if after.Status != models.ScheduledStatusFailed {
		t.Fatalf("status = %s, want failed", after.Status)
	}
	if after.ErrorMessage == "" {
		t.Error("error_message is empty, want the send failure reason")
	}
	if len(store.sent) != 0 {
		t.Errorf("sent records = %d, want 0 on failure", len(store.sent))
	}
}

func TestDispatcherFailureDoesNotStopBatch(t *testing.T) {
	bad := pendingEmail(time.Now().Add(-2 * time.Minute))
	good := pendingEmail(time.Now().Add(-time.Minute))
	good.ToEmail = "vp@fund.example.com"
	store := newFakeStore(bad, good)
	gw := &fakeGateway{failTo: map[string]error{bad.ToEmail: errors.New("quota exceeded")}}

	d := NewDispatcher(store, gw, &fakeCreds{}, &fakeProfiles{}, nil, testDispatchConfig(), zap.NewNop())
	d.Pass(context.Background())

	if status := store.get(bad.ID).Status; status != models.ScheduledStatusFailed {
		t.Errorf("bad status = %s, want failed", status)
	}
	if status := store.get(good.ID).Status; status != models.ScheduledStatusSent {
		t.Errorf("good status = %s, want sent", status)
	}
	if got := gw.sendCount(); got != 1 {
		t.Errorf("send count = %d, want 1", got)
	}
}

func TestDispatcherFailsWhenCredentialsUnavailable(t *testing.T) {
	e := pendingEmail(time.Now().Add(-time.Minute))
	store := newFakeStore(e)
	gw := &fakeGateway{}

	d := NewDispatcher(store, gw, &fakeCreds{err: mail.ErrAuthExpired}, &fakeProfiles{}, nil, testDispatchConfig(), zap.NewNop())
	d.Pass(context.Background())

	after := store.get(e.ID)
	if after.Status != models.ScheduledStatusFailed {
		t.Fatalf("status = %s, want failed", after.Status)
	}
	if !strings.Contains(after.ErrorMessage, "authorization") {
		t.Errorf("error_message = %q, want authorization reason", after.ErrorMessage)
	}
	if got := gw.sendCount(); got != 0 {
		t.Errorf("send count = %d, want 0", got)
	}
}

func TestDispatcherAppendsSignatureAndResume(t *testing.T) {
	e := pendingEmail(time.Now().Add(-time.Minute))
	e.IncludeSignature = true
	e.AttachResume = true
	store := newFakeStore(e)
	gw := &fakeGateway{}
	profiles := &fakeProfiles{
		signature: "Best,\nJordan Lee",
		resume:    &mail.Attachment{Filename: "resume.pdf", Mimetype: "application/pdf", Data: []byte("%PDF-1.4")},
	}

	d := NewDispatcher(store, gw, &fakeCreds{}, profiles, nil, testDispatchConfig(), zap.NewNop())
	d.Pass(context.Background())

	if got := gw.sendCount(); got != 1 {
		t.Fatalf("send count = %d, want 1", got)
	}
	raw := gw.raws[0]
	if !strings.Contains(raw, "Jordan Lee") {
		t.Error("signature missing from outgoing message")
	}
	if !strings.Contains(raw, `filename="resume.pdf"`) {
		t.Error("resume attachment missing from outgoing message")
	}
	if !strings.Contains(raw, "multipart/mixed") {
		t.Error("message with attachment should be multipart/mixed")
	}
}

func TestDispatcherFailsWhenResumeUnavailable(t *testing.T) {
	e := pendingEmail(time.Now().Add(-time.Minute))
	e.AttachResume = true
	store := newFakeStore(e)
	gw := &fakeGateway{}

	d := NewDispatcher(store, gw, &fakeCreds{}, &fakeProfiles{resumeErr: errors.New("no resume on file")}, nil, testDispatchConfig(), zap.NewNop())
	d.Pass(context.Background())

	after := store.get(e.ID)
	if after.Status != models.ScheduledStatusFailed {
		t.Fatalf("status = %s, want failed", after.Status)
	}
	if got := gw.sendCount(); got != 0 {
		t.Errorf("send count = %d, want 0", got)
	}
}
