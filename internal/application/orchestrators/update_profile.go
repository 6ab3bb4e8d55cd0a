package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"edtpro/internal/adapters/api"
	"edtpro/internal/adapters/media"
	"edtpro/internal/application/session"
	"edtpro/internal/application/validation"
	"edtpro/internal/domain/account"
)

// SessionStoreForUpdateProfile defines the session store interface needed by UpdateProfile.
type SessionStoreForUpdateProfile interface {
	SaveUser(ctx context.Context, clientID string, user account.Profile) error
	Clear(ctx context.Context, clientID string) error
}

// UserAPIForUpdateProfile defines the API call needed by UpdateProfile.
type UserAPIForUpdateProfile interface {
	UpdateUser(ctx context.Context, token string, id account.ID, u api.ProfileUpdate) (account.Profile, error)
}

// PhotoUpload is a raw file from the profile form.
type PhotoUpload struct {
	Filename string
	Data     []byte
}

// UpdateProfileInput carries input for the profile edit orchestrator.
type UpdateProfileInput struct {
	ClientID string
	Session  session.Session
	Form     validation.ProfileForm
	Photo    *PhotoUpload
}

// UpdateProfileDeps holds dependencies for UpdateProfile.
type UpdateProfileDeps struct {
	Sessions       SessionStoreForUpdateProfile
	API            UserAPIForUpdateProfile
	Validator      FormValidator
	NormalizePhoto func(data []byte, filename string) (media.Photo, error)
}

// ExecuteUpdateProfile validates and sends a profile edit, then merges the result into the stored profile.
// PRE: Session is the loaded session of ClientID
// POST: On success the stored profile reflects the API fragment and keeps its role
func ExecuteUpdateProfile(ctx context.Context, input UpdateProfileInput, deps UpdateProfileDeps) (account.Profile, error) {
	form := input.Form
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	if err := deps.Validator.Struct(form); err != nil {
		return account.Profile{}, err
	}

	user := input.Session.User
	update := api.ProfileUpdate{Name: form.Name, Email: form.Email}
	if form.ChangesPassword() {
		update.CurrentPassword = form.CurrentPassword
		update.NewPassword = form.NewPassword
	}

	switch user.Role {
	case account.RoleStudent:
		matricule := strings.TrimSpace(form.RegistrationNumber)
		update.RegistrationNumber = &matricule
		update.LevelID = account.ID(form.LevelID)
	case account.RoleTeacher:
		poste := strings.TrimSpace(form.Position)
		update.Position = &poste
		for _, id := range form.SubjectIDs {
			update.SubjectIDs = append(update.SubjectIDs, account.ID(id))
		}
	}

	if input.Photo != nil && len(input.Photo.Data) > 0 {
		photo, err := deps.NormalizePhoto(input.Photo.Data, input.Photo.Filename)
		if err != nil {
			return account.Profile{}, validation.FieldErrors{"photo": photoMessage(err)}
		}
		update.Photo = &api.Photo{Filename: photo.Filename, ContentType: photo.ContentType, Data: photo.Data}
	}

	fragment, err := deps.API.UpdateUser(ctx, input.Session.AccessToken, user.ID, update)
	if err != nil {
		return account.Profile{}, expireOnUnauthorized(ctx, deps.Sessions, input.ClientID, err)
	}

	merged := user.Merge(fragment)
	if err := deps.Sessions.SaveUser(ctx, input.ClientID, merged); err != nil {
		return account.Profile{}, err
	}
	slog.Info("profile_event", "event", "profile_updated", "user_id", user.ID, "password_changed", form.ChangesPassword(), "photo", update.Photo != nil)
	return merged, nil
}

// photoMessage strips wrapped detail from media errors.
func photoMessage(err error) string {
	for _, known := range []error{media.ErrEmpty, media.ErrTooLarge, media.ErrUnsupported, media.ErrUndecodable} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return media.ErrUndecodable.Error()
}
