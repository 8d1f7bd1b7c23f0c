// Package mail delivers outbound notifications over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the SMTP relay settings. All fields are required.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Enabled reports whether every setting needed to send mail is present.
func (c Config) Enabled() bool {
	return c.Host != "" && c.Port != "" && c.Username != "" && c.Password != "" && c.From != ""
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPDispatcher sends plain-text mail synchronously so failures reach the caller.
type SMTPDispatcher struct {
	cfg  Config
	send sendFunc
	now  func() time.Time
	log  zerolog.Logger
}

// NewSMTPDispatcher returns nil when cfg is incomplete; callers treat a nil
// dispatcher as "no sender configured".
func NewSMTPDispatcher(cfg Config, log zerolog.Logger) *SMTPDispatcher {
	if !cfg.Enabled() {
		log.Warn().Msg("smtp disabled: missing SMTP_* settings")
		return nil
	}
	return &SMTPDispatcher{cfg: cfg, send: smtp.SendMail, now: time.Now, log: log}
}

var ErrNotConfigured = errors.New("mail: no sender configured")

func (d *SMTPDispatcher) Send(ctx context.Context, recipient, subject, body string) error {
	if d == nil {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(recipient, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return errors.New("mail: header contains a line break")
	}

	auth := smtp.PlainAuth("", d.cfg.Username, d.cfg.Password, d.cfg.Host)
	addr := net.JoinHostPort(d.cfg.Host, d.cfg.Port)
	msg := buildMessage(d.cfg.From, recipient, subject, body, d.now())

	if err := d.send(addr, auth, d.cfg.From, []string{recipient}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	d.log.Info().Str("subject", subject).Msg("mail sent")
	return nil
}

func buildMessage(from, to, subject, body string, at time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", at.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
