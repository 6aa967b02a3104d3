// Package mailer sends alert emails through the SMTP account configured in
// a user's email settings.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/alphabase/internal/models"
	"go.uber.org/zap"
)

const (
	subjectPrefix = "AlphaBase Alert: "
	rule          = "========================================"
	signature     = "Sent by AlphaBase v4.0"
)

// ErrDisabled is returned when email notifications are turned off.
var ErrDisabled = errors.New("email notifications are disabled")

// ErrNotConfigured is returned when the settings lack a sender account.
var ErrNotConfigured = errors.New("email sender is not configured")

// SendFunc has the signature of smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer formats and delivers alert emails.
type Mailer struct {
	send SendFunc
	now  func() time.Time
	log  *zap.Logger
}

// New returns a Mailer delivering through smtp.SendMail, which upgrades to
// STARTTLS when the server offers it.
func New(log *zap.Logger) *Mailer {
	return NewWithSender(smtp.SendMail, log)
}

// NewWithSender returns a Mailer delivering through send.
func NewWithSender(send SendFunc, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{send: send, now: time.Now, log: log}
}

// SendAlert emails a formatted alert to req.ToEmail using cfg.
func (m *Mailer) SendAlert(ctx context.Context, cfg models.EmailConfig, req models.AlertRequest) error {
	subject, body := FormatAlert(req, m.now())
	return m.Send(ctx, cfg, req.ToEmail, subject, body)
}

// Send delivers a plain-text message.
func (m *Mailer) Send(ctx context.Context, cfg models.EmailConfig, to, subject, body string) error {
	if !cfg.Enabled {
		return ErrDisabled
	}
	cfg = cfg.WithDefaults()
	if cfg.SenderEmail == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if cfg.SenderPassword != "" {
		auth = smtp.PlainAuth("", cfg.SenderEmail, cfg.SenderPassword, cfg.SMTPServer)
	}
	addr := net.JoinHostPort(cfg.SMTPServer, strconv.Itoa(cfg.SMTPPort))

	msg := compose(cfg.SenderEmail, to, subject, body)
	if err := m.send(addr, auth, cfg.SenderEmail, []string{to}, msg); err != nil {
		m.log.Warn("email delivery failed", zap.String("to", to), zap.String("smtp", addr), zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}
	m.log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// FormatAlert renders the subject and body of an alert email. Data entries
// are listed in key order.
func FormatAlert(req models.AlertRequest, at time.Time) (subject, body string) {
	var b strings.Builder
	b.WriteString("AlphaBase Alert Notification\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "Alert: %s\n", req.AlertTitle)
	fmt.Fprintf(&b, "Time: %s\n\n", at.Format(time.DateTime))
	fmt.Fprintf(&b, "Message:\n%s\n", req.AlertMessage)

	if len(req.Data) > 0 {
		b.WriteString("\nData:\n")
		keys := make([]string, 0, len(req.Data))
		for k := range req.Data {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %v\n", k, req.Data[k])
		}
	}

	b.WriteString("\n" + rule + "\n" + signature)
	return subjectPrefix + req.AlertTitle, b.String()
}

func compose(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
