package infra

import (
	"bytes"
	"fmt"
	"net/smtp"

	"ravito/internal/config"

	"github.com/jordan-wright/email"
)

// Attachment is an in-memory file joined to a mail.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is what the email worker hands to the mailer.
type Message struct {
	To          []string
	Subject     string
	Text        string
	Attachments []Attachment
}

// Mailer sends mail through the configured SMTP relay, behind a circuit breaker.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
	cb       *CircuitBreaker
}

func NewMailer(cfg *config.Config, cb *CircuitBreaker) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		cb:       cb,
	}
}

// Enabled is false when no SMTP host is configured; sends are then skipped.
func (m *Mailer) Enabled() bool { return m.host != "" }

// Breaker exposes the breaker state for health checks and the retry cron.
func (m *Mailer) Breaker() *CircuitBreaker { return m.cb }

func (m *Mailer) Send(msg Message) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = msg.To
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)

	for _, a := range msg.Attachments {
		if _, err := e.Attach(bytes.NewReader(a.Data), a.Filename, a.ContentType); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", a.Filename, err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return m.cb.Execute(func() error {
		return e.Send(m.addr, auth)
	})
}
