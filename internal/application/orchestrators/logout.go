package orchestrators

import (
	"context"
	"log/slog"
)

// LogoutInput carries input for the logout orchestrator.
type LogoutInput struct {
	ClientID string
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	Sessions SessionClearer
}

// ExecuteLogout removes both session items.
// POST: The browser has no session; logging out twice is not an error
func ExecuteLogout(ctx context.Context, input LogoutInput, deps LogoutDeps) error {
	if err := deps.Sessions.Clear(ctx, input.ClientID); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "logout", "client_id", input.ClientID)
	return nil
}
