package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Email delivery tasks
	TypeSendOTPEmail         = "email:send_otp"
	TypeSendOrderStatusEmail = "email:order_status"
)

// OTPEmailPayload carries everything the worker needs to deliver a
// verification code
type OTPEmailPayload struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
}

// OrderStatusEmailPayload carries a fulfilment update notification
type OrderStatusEmailPayload struct {
	Email   string `json:"email"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// NewSendOTPEmailTask creates a task to deliver a verification code
func NewSendOTPEmailTask(email, code, purpose string) (*asynq.Task, error) {
	payload, err := json.Marshal(OTPEmailPayload{
		Email:   email,
		Code:    code,
		Purpose: purpose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeSendOTPEmail, payload, asynq.Queue("critical")), nil
}

// NewSendOrderStatusEmailTask creates a task to notify about an order status change
func NewSendOrderStatusEmailTask(email, orderID, status string) (*asynq.Task, error) {
	payload, err := json.Marshal(OrderStatusEmailPayload{
		Email:   email,
		OrderID: orderID,
		Status:  status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeSendOrderStatusEmail, payload), nil
}

// ParseOTPEmailPayload parses an OTP email payload from an Asynq task
func ParseOTPEmailPayload(task *asynq.Task) (OTPEmailPayload, error) {
	var payload OTPEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

// ParseOrderStatusEmailPayload parses an order status payload from an Asynq task
func ParseOrderStatusEmailPayload(task *asynq.Task) (OrderStatusEmailPayload, error) {
	var payload OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
