package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LogSender logs emails instead of delivering them. Used in development and
// whenever no provider credentials are configured.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a log-only sender
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "mailer").Logger()}
}

// Send logs the email without delivering it
func (s *LogSender) Send(_ context.Context, msg Message) (Result, error) {
	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("html", msg.HTML).
		Msg("Email logged (no provider configured)")
	return Result{
		MessageID: fmt.Sprintf("log-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}
