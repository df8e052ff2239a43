package notification

import (
	"context"
	"log/slog"
)

// logEmailSender is the demo-mode email sender: messages are logged, never
// delivered.
type logEmailSender struct {
	log *slog.Logger
}

// NewLogEmailSender creates an email sender that only logs what it would send.
func NewLogEmailSender(log *slog.Logger) EmailSender {
	return &logEmailSender{log: log}
}

func (s *logEmailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	s.log.Info("DEMO SEND: email would be sent", "to", to, "subject", subject)
	return nil // Always succeed
}
