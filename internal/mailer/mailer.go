// Package mailer is the Email collaborator. Sends are best-effort by
// contract: the dispatcher attempts each address independently, logs
// failures, and never retries.
package mailer

import (
	"context"
	"log/slog"
)

// Sender delivers one email. Implementations must not retry; the caller
// treats any error as a logged, swallowed failure.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes emails to the log instead of delivering them. Default in
// development when no queue is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "email (log sender)",
		"to", to,
		"subject", subject,
	)
	return nil
}
