package workers

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/glowcart-dev/glowcart/internal/mailer"
	"github.com/glowcart-dev/glowcart/internal/tasks"
)

// EmailWorker handles email delivery tasks from the queue
type EmailWorker struct {
	sender mailer.Sender
	logger zerolog.Logger
}

// NewEmailWorker creates a new email worker
func NewEmailWorker(sender mailer.Sender, logger zerolog.Logger) *EmailWorker {
	return &EmailWorker{
		sender: sender,
		logger: logger.With().Str("component", "email_worker").Logger(),
	}
}

// Register attaches the worker's handlers to an Asynq mux
func (w *EmailWorker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(tasks.TypeSendOTPEmail, w.HandleSendOTPEmail)
	mux.HandleFunc(tasks.TypeSendOrderStatusEmail, w.HandleSendOrderStatusEmail)
}

// HandleSendOTPEmail delivers a verification code email
func (w *EmailWorker) HandleSendOTPEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := tasks.ParseOTPEmailPayload(task)
	if err != nil {
		return err
	}

	msg := mailer.OTPMessage(payload.Email, payload.Code, payload.Purpose)
	result, err := w.sender.Send(ctx, msg)
	if err != nil {
		w.logger.Error().Err(err).Str("purpose", payload.Purpose).Msg("Failed to deliver OTP email")
		return fmt.Errorf("failed to deliver OTP email: %w", err)
	}

	w.logger.Info().
		Str("message_id", result.MessageID).
		Str("purpose", payload.Purpose).
		Msg("OTP email delivered")
	return nil
}

// HandleSendOrderStatusEmail delivers a fulfilment update email
func (w *EmailWorker) HandleSendOrderStatusEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := tasks.ParseOrderStatusEmailPayload(task)
	if err != nil {
		return err
	}

	msg := mailer.OrderStatusMessage(payload.Email, payload.OrderID, payload.Status)
	result, err := w.sender.Send(ctx, msg)
	if err != nil {
		w.logger.Error().Err(err).Str("order_id", payload.OrderID).Msg("Failed to deliver order status email")
		return fmt.Errorf("failed to deliver order status email: %w", err)
	}

	w.logger.Info().
		Str("message_id", result.MessageID).
		Str("order_id", payload.OrderID).
		Msg("Order status email delivered")
	return nil
}
