package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"edtpro/internal/adapters/api"
)

// User-facing messages
const (
	MsgUnavailable     = "Service indisponible, veuillez réessayer plus tard"
	MsgLoginFallback   = "Identifiants invalides"
	MsgGenericFallback = "Une erreur est survenue, veuillez réessayer"
	MsgResetFallback   = "Si un compte existe pour cette adresse, un email de réinitialisation a été envoyé"
	MsgProfileSaved    = "Profil mis à jour"
	MsgGradesSaved     = "Notes enregistrées"
)

// SessionClearer removes the stored session of a browser.
type SessionClearer interface {
	Clear(ctx context.Context, clientID string) error
}

// UserMessage returns the form-level message for a failed submission.
// Remote rejections show the server message, transport failures a generic notice.
func UserMessage(err error, fallback string) string {
	if errors.Is(err, api.ErrUnavailable) {
		return MsgUnavailable
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsSessionExpired reports whether err means the API no longer accepts the token.
func IsSessionExpired(err error) bool {
	return errors.Is(err, api.ErrUnauthorized)
}

// expireOnUnauthorized clears the session when the API answered 401, then returns err unchanged.
func expireOnUnauthorized(ctx context.Context, sessions SessionClearer, clientID string, err error) error {
	if !IsSessionExpired(err) {
		return err
	}
	slog.Info("auth_event", "event", "session_expired", "client_id", clientID)
	if clearErr := sessions.Clear(ctx, clientID); clearErr != nil {
		return errors.Join(err, clearErr)
	}
	return err
}
