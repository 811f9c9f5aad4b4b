package worker

// email_worker.go
// Processes email jobs from QueueEmail: post-commit notifications such as the
// "password changed" confirmation.

import (
	"context"
	"encoding/json"
	"errors"

	"restopos/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailWorker sends queued messages through the configured mailer.
type EmailWorker struct {
	mailer infra.Mailer
}

func NewEmailWorker(mailer infra.Mailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

// Process decodes an infra.Email payload and sends it. Malformed payloads are
// dropped without error so they are not redelivered.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var msg infra.Email
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if msg.To == "" {
		log.Warn().Msg("email_worker: empty recipient, skipping")
		return nil
	}

	if err := w.mailer.Send(ctx, msg); err != nil {
		if errors.Is(err, infra.ErrCircuitOpen) {
			log.Warn().Str("to", msg.To).Msg("email_worker: provider circuit open")
		}
		return err
	}
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email_worker: email sent")
	return nil
}
