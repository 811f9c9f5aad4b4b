package infra

import (
	"context"

	"restopos/internal/config"
)

// Email is a single outbound message.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// Mailer is the outbound email transport used by services and the email worker.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// NewMailer picks Resend when an API key is configured, SMTP otherwise, and
// wraps the transport in a circuit breaker.
func NewMailer(cfg *config.Config) Mailer {
	var transport Mailer
	if cfg.ResendAPIKey != "" {
		transport = NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom)
	} else {
		transport = NewSMTPMailer(cfg)
	}
	return NewBreakerMailer(transport, NewCircuitBreaker("email", DefaultCBConfig()))
}

// BreakerMailer fast-fails sends while the provider is known to be down.
type BreakerMailer struct {
	next Mailer
	cb   *CircuitBreaker
}

func NewBreakerMailer(next Mailer, cb *CircuitBreaker) *BreakerMailer {
	return &BreakerMailer{next: next, cb: cb}
}

func (m *BreakerMailer) Send(ctx context.Context, msg Email) error {
	return m.cb.Execute(func() error { return m.next.Send(ctx, msg) })
}

// Breaker exposes the breaker for health reporting.
func (m *BreakerMailer) Breaker() *CircuitBreaker { return m.cb }

// raceContext runs fn and returns its error, or ctx.Err() if ctx ends first.
func raceContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
