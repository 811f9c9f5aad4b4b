package infra

import (
	"context"
	"fmt"
	"net/smtp"

	"restopos/internal/config"

	"github.com/jordan-wright/email"
)

// SMTPMailer sends plain-text + HTML emails through an SMTP relay.
type SMTPMailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Send delivers msg. net/smtp has no context support, so the send runs in its
// own goroutine and is abandoned (not cancelled) when ctx is done first.
func (m *SMTPMailer) Send(ctx context.Context, msg Email) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return raceContext(ctx, func() error {
		if err := e.Send(m.addr, auth); err != nil {
			return fmt.Errorf("mailer: smtp send: %w", err)
		}
		return nil
	})
}
