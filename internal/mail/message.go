// Package mail builds RFC 2822 messages in the raw base64url form the
// Gmail API expects, and sends them through a user's connected account.
package mail

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// ContentTypePlain and ContentTypeHTML are the supported body types.
const (
	ContentTypePlain = "text/plain"
	ContentTypeHTML  = "text/html"
)

// Attachment is a file included with a message.
type Attachment struct {
	Filename string
	Mimetype string
	Data     []byte
}

// ValidationError reports malformed compose input. It is surfaced to the
// caller directly; nothing is sent.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid message: " + e.Reason
}

// HTMLBody wraps plain text in a minimal HTML document, turning line
// breaks into <br> tags. Empty lines are kept as blank rows.
func HTMLBody(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	htmlBody := strings.Join(lines, "<br>\n")

	return strings.TrimSpace(fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  %s
</body>
</html>`, htmlBody))
}

// Compose builds the raw RFC 2822 message. With no attachment the result is
// single-part; with one it is multipart/mixed with a base64-encoded
// attachment part and a closed boundary.
func Compose(to, subject, content, contentType string, att *Attachment) ([]byte, error) {
	if att != nil {
		if att.Filename == "" {
			return nil, &ValidationError{Reason: "attachment filename is required"}
		}
		if att.Mimetype == "" {
			return nil, &ValidationError{Reason: "attachment mimetype is required"}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\n", to)
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	b.WriteString("MIME-Version: 1.0\n")

	if att == nil {
		fmt.Fprintf(&b, "Content-Type: %s; charset=\"UTF-8\"\n", contentType)
		b.WriteString("Content-Transfer-Encoding: 7bit\n\n")
		b.WriteString(content)
		return []byte(b.String()), nil
	}

	// Unique within the process; nanosecond clock avoids collisions
	// across messages composed in the same pass.
	boundary := fmt.Sprintf("outreach_%d", time.Now().UnixNano())

	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=\"%s\"\n\n", boundary)

	fmt.Fprintf(&b, "--%s\n", boundary)
	fmt.Fprintf(&b, "Content-Type: %s; charset=\"UTF-8\"\n", contentType)
	b.WriteString("Content-Transfer-Encoding: 7bit\n\n")
	b.WriteString(content)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "--%s\n", boundary)
	fmt.Fprintf(&b, "Content-Type: %s; name=\"%s\"\n", att.Mimetype, att.Filename)
	fmt.Fprintf(&b, "Content-Disposition: attachment; filename=\"%s\"\n", att.Filename)
	b.WriteString("Content-Transfer-Encoding: base64\n\n")
	b.WriteString(base64.StdEncoding.EncodeToString(att.Data))
	b.WriteString("\n")
	fmt.Fprintf(&b, "--%s--", boundary)

	return []byte(b.String()), nil
}

// EncodeForTransport converts a raw message to the web-safe base64 the
// Gmail API accepts in its "raw" field: standard base64 with '+' -> '-',
// '/' -> '_' and padding stripped.
func EncodeForTransport(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}
