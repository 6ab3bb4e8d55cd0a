package orchestrators

import (
	"context"
	"log/slog"
	"strings"

	"edtpro/internal/application/validation"
)

// AuthAPIForPasswordReset defines the API call needed by RequestPasswordReset.
type AuthAPIForPasswordReset interface {
	RequestPasswordReset(ctx context.Context, email string) (string, error)
}

// RequestPasswordResetInput carries input for the reset request orchestrator.
type RequestPasswordResetInput struct {
	Email string
}

// RequestPasswordResetDeps holds dependencies for RequestPasswordReset.
type RequestPasswordResetDeps struct {
	API       AuthAPIForPasswordReset
	Validator FormValidator
}

// ExecuteRequestPasswordReset asks the API to send a reset email.
// POST: Returns the server message, or MsgResetFallback when it sent none
func ExecuteRequestPasswordReset(ctx context.Context, input RequestPasswordResetInput, deps RequestPasswordResetDeps) (string, error) {
	form := validation.ResetForm{Email: strings.TrimSpace(input.Email)}
	if err := deps.Validator.Struct(form); err != nil {
		return "", err
	}
	msg, err := deps.API.RequestPasswordReset(ctx, form.Email)
	if err != nil {
		return "", err
	}
	slog.Info("auth_event", "event", "password_reset_requested", "email", form.Email)
	if msg == "" {
		msg = MsgResetFallback
	}
	return msg, nil
}
