package orchestrators

import (
	"context"
	"log/slog"
	"strings"

	"edtpro/internal/adapters/api"
	"edtpro/internal/application/session"
	"edtpro/internal/application/validation"
	"edtpro/internal/domain/account"
)

// FormValidator checks a form struct and returns validation.FieldErrors.
type FormValidator interface {
	Struct(form any) error
}

// SessionStoreForLogin defines the session store interface needed by Login.
type SessionStoreForLogin interface {
	Save(ctx context.Context, clientID string, s session.Session) error
}

// AuthAPIForLogin defines the API call needed by Login.
type AuthAPIForLogin interface {
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	ClientID string
	Email    string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Sessions  SessionStoreForLogin
	API       AuthAPIForLogin
	Validator FormValidator
}

// ExecuteLogin validates credentials locally, exchanges them for a token and stores the session.
// PRE: ClientID identifies the browser
// POST: On success the session holds exactly the returned token and profile;
// on any failure the session store is untouched
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (account.Profile, error) {
	form := validation.LoginForm{Email: strings.TrimSpace(input.Email), Password: input.Password}
	if err := deps.Validator.Struct(form); err != nil {
		return account.Profile{}, err
	}

	res, err := deps.API.Login(ctx, form.Email, form.Password)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", form.Email, "error", err)
		return account.Profile{}, err
	}

	if err := deps.Sessions.Save(ctx, input.ClientID, session.Session{AccessToken: res.AccessToken, User: res.User}); err != nil {
		return account.Profile{}, err
	}

	slog.Info("auth_event", "event", "login_success", "email", form.Email, "role", res.User.Role)
	return res.User, nil
}
