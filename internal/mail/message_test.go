package mail

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestEncodeForTransportRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte(""),
		[]byte("plain ascii"),
		[]byte("padding edge"), // len%3 != 0
		{0x00, 0xff, 0xfe, 0x2b, 0x2f, 0x3d},
		[]byte(strings.Repeat("long line of message bytes ", 100)),
	}
	for _, raw := range cases {
		enc := EncodeForTransport(raw)
		if strings.ContainsAny(enc, "+/=") {
			t.Fatalf("encoding not web-safe: %q", enc)
		}
		dec, err := base64.RawURLEncoding.DecodeString(enc)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if !bytes.Equal(dec, raw) {
			t.Fatalf("round trip mismatch: got %q want %q", dec, raw)
		}
	}
}

func TestComposeSinglePart(t *testing.T) {
	raw, err := Compose("banker@bank.com", "Coffee chat", "Hi there", ContentTypePlain, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg := string(raw)
	for _, want := range []string{
		"To: banker@bank.com\n",
		"Subject: Coffee chat\n",
		"MIME-Version: 1.0\n",
		`Content-Type: text/plain; charset="UTF-8"`,
		"Content-Transfer-Encoding: 7bit\n",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("missing %q in:\n%s", want, msg)
		}
	}
	if !strings.HasSuffix(msg, "\n\nHi there") {
		t.Fatalf("body not separated by blank line:\n%s", msg)
	}
	if strings.Contains(msg, "boundary") {
		t.Fatalf("single-part message must not declare a boundary:\n%s", msg)
	}
}

func TestComposeWithAttachment(t *testing.T) {
	payload := []byte("%PDF-1.4 fake resume bytes")
	att := &Attachment{Filename: "resume.pdf", Mimetype: "application/pdf", Data: payload}
	raw, err := Compose("banker@bank.com", "Application", "See attached", ContentTypePlain, att)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg := string(raw)

	// pull the boundary out of the Content-Type header
	idx := strings.Index(msg, `boundary="`)
	if idx < 0 {
		t.Fatalf("no boundary declared:\n%s", msg)
	}
	rest := msg[idx+len(`boundary="`):]
	boundary := rest[:strings.Index(rest, `"`)]

	if got := strings.Count(msg, "--"+boundary+"\n"); got != 2 {
		t.Fatalf("expected 2 opening boundary markers, got %d", got)
	}
	if got := strings.Count(msg, "--"+boundary+"--"); got != 1 {
		t.Fatalf("expected exactly 1 closing boundary, got %d", got)
	}
	if !strings.HasSuffix(msg, "--"+boundary+"--") {
		t.Fatalf("message must end with the closing boundary")
	}
	if !strings.Contains(msg, `Content-Disposition: attachment; filename="resume.pdf"`) {
		t.Fatalf("missing attachment disposition:\n%s", msg)
	}

	// attachment part body must be valid base64 of the payload
	partIdx := strings.Index(msg, "Content-Transfer-Encoding: base64\n\n")
	if partIdx < 0 {
		t.Fatalf("missing base64 transfer encoding header")
	}
	encoded := msg[partIdx+len("Content-Transfer-Encoding: base64\n\n"):]
	encoded = strings.TrimSuffix(encoded, "--"+boundary+"--")
	encoded = strings.TrimSpace(encoded)
	dec, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("attachment part is not valid base64: %v", err)
	}
	if !bytes.Equal(dec, payload) {
		t.Fatalf("attachment payload mismatch")
	}
}

func TestComposeRejectsBadAttachmentMetadata(t *testing.T) {
	tests := []struct {
		name string
		att  *Attachment
	}{
		{"missing filename", &Attachment{Mimetype: "application/pdf", Data: []byte("x")}},
		{"missing mimetype", &Attachment{Filename: "resume.pdf", Data: []byte("x")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compose("a@b.com", "s", "c", ContentTypePlain, tt.att)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestHTMLBodyKeepsAllLines(t *testing.T) {
	body := "line one\n\nline three"
	html := HTMLBody(body)
	if !strings.Contains(html, "line one<br>\n<br>\nline three") {
		t.Fatalf("line breaks not preserved:\n%s", html)
	}
	if !strings.Contains(html, "<!DOCTYPE html>") {
		t.Fatalf("not wrapped in an HTML document:\n%s", html)
	}
}
