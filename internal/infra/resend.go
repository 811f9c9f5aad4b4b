package infra

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// ResendMailer delivers email through the Resend HTTP API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (m *ResendMailer) Send(ctx context.Context, msg Email) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	}
	return raceContext(ctx, func() error {
		if _, err := m.client.Emails.Send(params); err != nil {
			return fmt.Errorf("mailer: resend send: %w", err)
		}
		return nil
	})
}
