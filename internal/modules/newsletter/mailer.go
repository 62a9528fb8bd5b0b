package newsletter

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SMTPConfig holds the outbound mail settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// Configured reports whether enough settings exist to send mail
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != "" && c.Sender != ""
}

// Sender delivers a raw RFC 5322 message. smtpSender is the real one.
type Sender interface {
	Send(from string, to []string, msg []byte) error
}

type smtpSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates a Sender backed by net/smtp with PLAIN auth
func NewSMTPSender(cfg SMTPConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(from string, to []string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if err := smtp.SendMail(addr, auth, from, to, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	return nil
}

// BuildMessage assembles a multipart/alternative message with an optional
// inline chart image, referenced from the HTML body as cid:trend-chart.
func BuildMessage(cfg SMTPConfig, to []string, email *Email, now time.Time) []byte {
	mixedBoundary := "folio-mixed-" + uuid.New().String()
	altBoundary := "folio-alt-" + uuid.New().String()

	var sb strings.Builder

	fmt.Fprintf(&sb, "From: %s\r\n", cfg.Sender)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	fmt.Fprintf(&sb, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&sb, "Message-ID: <%s@folio>\r\n", uuid.New().String())
	sb.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&sb, "Content-Type: multipart/related; boundary=%q\r\n\r\n", mixedBoundary)

	// Text and HTML alternatives
	fmt.Fprintf(&sb, "--%s\r\n", mixedBoundary)
	fmt.Fprintf(&sb, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", altBoundary)

	fmt.Fprintf(&sb, "--%s\r\n", altBoundary)
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(email.Text)
	sb.WriteString("\r\n")

	fmt.Fprintf(&sb, "--%s\r\n", altBoundary)
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	sb.WriteString(email.HTML)
	sb.WriteString("\r\n")

	fmt.Fprintf(&sb, "--%s--\r\n", altBoundary)

	if len(email.Chart) > 0 {
		fmt.Fprintf(&sb, "--%s\r\n", mixedBoundary)
		sb.WriteString("Content-Type: image/png\r\n")
		sb.WriteString("Content-Transfer-Encoding: base64\r\n")
		sb.WriteString("Content-ID: <trend-chart>\r\n")
		sb.WriteString("Content-Disposition: inline; filename=\"trend.png\"\r\n\r\n")

		encoded := base64.StdEncoding.EncodeToString(email.Chart)
		for len(encoded) > 76 {
			sb.WriteString(encoded[:76])
			sb.WriteString("\r\n")
			encoded = encoded[76:]
		}
		sb.WriteString(encoded)
		sb.WriteString("\r\n")
	}

	fmt.Fprintf(&sb, "--%s--\r\n", mixedBoundary)

	return []byte(sb.String())
}
