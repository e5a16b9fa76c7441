package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NoopSender logs sends without delivering them. Used when no provider key is configured.
type NoopSender struct {
	now func() time.Time
}

// NewNoopSender creates a new NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{now: time.Now}
}

// Send logs the email but does not deliver it.
// POST: Returns a synthetic message ID
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	at := s.now()
	slog.Info("noop_email_send", "to", req.To, "subject", req.Subject, "html_bytes", len(req.HTML))
	return SendResult{
		MessageID: fmt.Sprintf("noop-%d", at.UnixNano()),
		SentAt:    at,
	}, nil
}
