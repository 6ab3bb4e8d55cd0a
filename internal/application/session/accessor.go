// Package session is the single accessor of the stored login state of a browser:
// the access token and the serialised user profile, kept as two items.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"edtpro/internal/domain/account"
)

// Storage keys of the two session items.
const (
	KeyAccessToken = "accessToken"
	KeyUser        = "user"
)

// ErrInvalidSession is returned by Save for a session that could never be loaded back.
var ErrInvalidSession = errors.New("session needs an access token and a valid profile")

// Storage is the key-value backend, one namespace per browser.
type Storage interface {
	GetItem(ctx context.Context, namespace, key string) (string, bool, error)
	SetItem(ctx context.Context, namespace, key, value string) error
	RemoveItem(ctx context.Context, namespace, key string) error
}

// Session pairs an access token with the user it belongs to.
type Session struct {
	AccessToken string
	User        account.Profile
}

// Accessor reads and writes the session of a browser.
type Accessor struct {
	store  Storage
	sealer *Sealer
	now    func() time.Time
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithSealer encrypts the access token at rest.
func WithSealer(s *Sealer) Option {
	return func(a *Accessor) { a.sealer = s }
}

// WithClock overrides time.Now, for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(a *Accessor) { a.now = now }
}

// NewAccessor creates an accessor over store.
func NewAccessor(store Storage, opts ...Option) *Accessor {
	a := &Accessor{store: store, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Raw returns the stored token and profile text without parsing the profile.
// Half-present sessions, unsealable tokens and expired JWTs are cleared and reported as empty.
// POST: Either both values are non-empty, or both are empty
func (a *Accessor) Raw(ctx context.Context, clientID string) (token, profile string, err error) {
	if clientID == "" {
		return "", "", nil
	}
	stored, hasToken, err := a.store.GetItem(ctx, clientID, KeyAccessToken)
	if err != nil {
		return "", "", err
	}
	profile, hasProfile, err := a.store.GetItem(ctx, clientID, KeyUser)
	if err != nil {
		return "", "", err
	}
	if !hasToken && !hasProfile {
		return "", "", nil
	}
	if !hasToken || !hasProfile || stored == "" || profile == "" {
		return "", "", a.heal(ctx, clientID, "half_session")
	}

	token = stored
	if a.sealer != nil {
		if token, err = a.sealer.Open(stored); err != nil {
			return "", "", a.heal(ctx, clientID, "unsealable_token")
		}
	}
	if a.isExpired(token) {
		return "", "", a.heal(ctx, clientID, "expired_token")
	}
	return token, profile, nil
}

// Load returns the session of the browser, or found=false.
// A profile that fails to parse clears the store.
// POST: found is false after a clear; a second Load is also absent
func (a *Accessor) Load(ctx context.Context, clientID string) (Session, bool, error) {
	token, raw, err := a.Raw(ctx, clientID)
	if err != nil {
		return Session{}, false, err
	}
	if token == "" {
		return Session{}, false, nil
	}
	user, err := account.ParseProfile(raw)
	if err != nil {
		return Session{}, false, a.heal(ctx, clientID, "corrupt_profile")
	}
	return Session{AccessToken: token, User: user}, true, nil
}

// Save writes both items of a session.
// PRE: s.AccessToken is non-empty and s.User is valid
// POST: Both items are stored; on failure nothing usable is left behind
func (a *Accessor) Save(ctx context.Context, clientID string, s Session) error {
	if clientID == "" || s.AccessToken == "" {
		return ErrInvalidSession
	}
	if err := s.User.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	raw, err := s.User.Encode()
	if err != nil {
		return err
	}
	token := s.AccessToken
	if a.sealer != nil {
		if token, err = a.sealer.Seal(token); err != nil {
			return err
		}
	}
	if err := a.store.SetItem(ctx, clientID, KeyUser, raw); err != nil {
		return err
	}
	if err := a.store.SetItem(ctx, clientID, KeyAccessToken, token); err != nil {
		_ = a.Clear(ctx, clientID)
		return err
	}
	return nil
}

// SaveUser replaces the stored profile, keeping the token.
func (a *Accessor) SaveUser(ctx context.Context, clientID string, user account.Profile) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	raw, err := user.Encode()
	if err != nil {
		return err
	}
	return a.store.SetItem(ctx, clientID, KeyUser, raw)
}

// Clear removes both items. Clearing an empty store is not an error.
func (a *Accessor) Clear(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil
	}
	errToken := a.store.RemoveItem(ctx, clientID, KeyAccessToken)
	errUser := a.store.RemoveItem(ctx, clientID, KeyUser)
	return errors.Join(errToken, errUser)
}

// heal clears a session found in an unusable state.
func (a *Accessor) heal(ctx context.Context, clientID, reason string) error {
	slog.WarnContext(ctx, "session_cleared", "reason", reason)
	return a.Clear(ctx, clientID)
}

// isExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens never expire here; the API answers 401 for them instead.
func (a *Accessor) isExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(a.now())
}
