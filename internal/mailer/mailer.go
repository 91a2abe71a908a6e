package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/glowcart-dev/glowcart/internal/config"
)

// Message is one outbound email
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Result is the provider's acknowledgement of an accepted send
type Result struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers emails via an external provider
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// FromConfig picks the Resend sender when an API key is configured and the
// log-only sender otherwise.
func FromConfig(cfg *config.Config, logger zerolog.Logger) Sender {
	if cfg.Email.ResendAPIKey != "" {
		return NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, logger)
	}
	logger.Warn().Msg("RESEND_API_KEY not set - emails will be logged, not delivered")
	return NewLogSender(logger)
}

// OTPMessage builds the verification email for a one-time code
func OTPMessage(to, code, purpose string) Message {
	subject := "Your Glowcart verification code"
	intro := "Use this code to verify your email address."
	if purpose == "reset_password" {
		subject = "Your Glowcart password reset code"
		intro = "Use this code to reset your password."
	}

	return Message{
		To:      to,
		Subject: subject,
		HTML: fmt.Sprintf(
			"<p>%s</p><p style=\"font-size:24px;letter-spacing:4px\"><strong>%s</strong></p><p>This code expires in 10 minutes.</p>",
			intro, code,
		),
	}
}

// OrderStatusMessage builds the fulfilment update email for an order
func OrderStatusMessage(to, orderID, status string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order %s is now %s", orderID, status),
		HTML: fmt.Sprintf(
			"<p>Your order <strong>%s</strong> is now <strong>%s</strong>.</p>",
			orderID, status,
		),
	}
}
