package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"edtpro/internal/application/session"
	"edtpro/internal/domain/access"
	"edtpro/internal/domain/account"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	sessionContextKey  contextKey = "session"
	clientIDContextKey contextKey = "client_id"
)

// ClientCookieName holds the opaque id that namespaces the client storage of a browser.
const ClientCookieName = "edtpro_client"

// SessionReader is the part of the session accessor the guard needs.
type SessionReader interface {
	Raw(ctx context.Context, clientID string) (token, profile string, err error)
	Clear(ctx context.Context, clientID string) error
}

// CookieOptions configures the client cookie.
type CookieOptions struct {
	Secure bool
	MaxAge int
}

// ClientID returns middleware that ensures every browser carries a client cookie.
// The id is exposed through ClientIDFromContext.
func ClientID(opts CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(ClientCookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     ClientCookieName,
					Value:    id,
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
					Path:     "/",
					MaxAge:   opts.MaxAge,
				})
			}
			next.ServeHTTP(w, r.WithContext(ContextWithClientID(r.Context(), id)))
		})
	}
}

// Guard returns middleware that runs the route guard on every request it wraps.
// Protected content is written only after an Authorized decision.
func Guard(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientID := ClientIDFromContext(ctx)
			w.Header().Set("Cache-Control", "no-store")

			token, raw, err := sessions.Raw(ctx, clientID)
			if err != nil {
				slog.Error("internal_error", "error", err, "path", r.URL.Path, "step", "session_read")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			d := access.Evaluate(r.URL.Path, token, raw)
			if d.ClearSession {
				if err := sessions.Clear(ctx, clientID); err != nil {
					slog.Error("internal_error", "error", err, "path", r.URL.Path, "step", "session_clear")
				}
			}
			if d.Outcome != access.Authorized {
				slog.Info("guard_redirect", "path", r.URL.Path, "outcome", d.Outcome.String(), "reason", d.Reason, "role", d.Profile.Role)
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
				return
			}

			sess := session.Session{AccessToken: token, User: d.Profile}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(ctx, sess)))
		})
	}
}

// RequireRole returns middleware that blocks sessions without one of the given roles.
// PRE: Runs inside Guard
func RequireRole(roles ...account.Role) func(http.Handler) http.Handler {
	roleSet := make(map[account.Role]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSessionFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !roleSet[sess.User.Role] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSessionFromContext extracts the guarded session from the request context.
func GetSessionFromContext(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(session.Session)
	return sess, ok
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// ClientIDFromContext returns the client id set by ClientID, or "".
func ClientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(clientIDContextKey).(string)
	return id
}

// ContextWithClientID returns a context carrying a client id.
func ContextWithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDContextKey, id)
}

// IsRole checks if the current session has one of the given roles.
func IsRole(ctx context.Context, roles ...account.Role) bool {
	sess, ok := GetSessionFromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range roles {
		if sess.User.Role == r {
			return true
		}
	}
	return false
}
