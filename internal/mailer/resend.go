package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// ResendSender delivers emails through the Resend API
type ResendSender struct {
	client *resend.Client
	from   string
	logger zerolog.Logger
}

// NewResendSender creates a sender with the given API key and from address
func NewResendSender(apiKey, from string, logger zerolog.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

// Send delivers a single email via Resend
func (s *ResendSender) Send(ctx context.Context, msg Message) (Result, error) {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		s.logger.Error().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("Resend delivery failed")
		return Result{}, fmt.Errorf("resend send failed: %w", err)
	}

	s.logger.Info().Str("message_id", sent.Id).Str("to", msg.To).Msg("Email sent")
	return Result{MessageID: sent.Id, SentAt: time.Now()}, nil
}
