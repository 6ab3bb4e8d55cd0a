package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"edtpro/internal/adapters/http/middleware"
	"edtpro/internal/adapters/media"
	"edtpro/internal/application/orchestrators"
	"edtpro/internal/application/projections"
	"edtpro/internal/application/session"
	"edtpro/internal/application/validation"
	"edtpro/internal/domain/account"
	"edtpro/internal/domain/navigation"
)

// handleProfile handles GET (form) and POST (multipart update) for /profile
func handleProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showProfile(w, r, sess)
	case http.MethodPost:
		updateProfile(w, r, sess)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func showProfile(w http.ResponseWriter, r *http.Request, sess session.Session) {
	ctx := r.Context()
	res, err := projections.GetProfileForm(ctx,
		projections.GetProfileFormQuery{Token: sess.AccessToken, User: sess.User},
		projections.GetProfileFormDeps{API: app.API})
	if err != nil {
		apiFailure(w, r, err)
		return
	}

	// The API copy is fresher than the one stored at login.
	clientID := middleware.ClientIDFromContext(ctx)
	if err := app.Sessions.SaveUser(ctx, clientID, sess.User.Merge(res.User)); err != nil {
		slog.Warn("profile_refresh_failed", "client_id", clientID, "error", err)
	}

	renderTemplate(w, r, "profile.html", map[string]any{
		"Profile": res,
		"Form":    res.Form,
		"Saved":   r.URL.Query().Get("saved") == "1",
		"Message": orchestrators.MsgProfileSaved,
	})
}

func updateProfile(w http.ResponseWriter, r *http.Request, sess session.Session) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(media.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			http.Error(w, media.ErrTooLarge.Error(), http.StatusRequestEntityTooLarge)
			return
		case errors.Is(err, http.ErrNotMultipart):
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
		default:
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
	}

	form := validation.ProfileForm{
		Name:               r.FormValue("nom"),
		Email:              r.FormValue("email"),
		CurrentPassword:    r.FormValue("currentPassword"),
		NewPassword:        r.FormValue("newPassword"),
		ConfirmPassword:    r.FormValue("confirmPassword"),
		RegistrationNumber: r.FormValue("matricule"),
		LevelID:            r.FormValue("niveauId"),
		Position:           r.FormValue("poste"),
		SubjectIDs:         r.Form["matiereIds"],
	}
	photo, err := readPhoto(r)
	if errors.Is(err, media.ErrTooLarge) {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	clientID := middleware.ClientIDFromContext(ctx)
	_, err = orchestrators.ExecuteUpdateProfile(ctx, orchestrators.UpdateProfileInput{
		ClientID: clientID,
		Session:  sess,
		Form:     form,
		Photo:    photo,
	}, orchestrators.UpdateProfileDeps{
		Sessions:       app.Sessions,
		API:            app.API,
		Validator:      app.Validator,
		NormalizePhoto: media.NormalizePhoto,
	})
	if err == nil {
		http.Redirect(w, r, "/profile?saved=1", http.StatusSeeOther)
		return
	}
	if orchestrators.IsSessionExpired(err) {
		http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
		return
	}
	fields, msg, status, ok := formFailure(err, orchestrators.MsgGenericFallback)
	if !ok {
		internalError(w, err)
		return
	}

	res, err := projections.GetProfileForm(ctx,
		projections.GetProfileFormQuery{Token: sess.AccessToken, User: sess.User},
		projections.GetProfileFormDeps{API: app.API})
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	form.CurrentPassword, form.NewPassword, form.ConfirmPassword = "", "", ""
	res.Selected = make(map[account.ID]bool, len(form.SubjectIDs))
	for _, id := range form.SubjectIDs {
		res.Selected[account.ID(id)] = true
	}

	renderTemplateStatus(w, r, status, "profile.html", map[string]any{
		"Profile": res,
		"Form":    form,
		"Errors":  fields,
		"Error":   msg,
	})
}

// readPhoto returns the uploaded photo, or nil when the file field was left empty.
// At most one byte past the upload cap is read; a larger file is media.ErrTooLarge.
func readPhoto(r *http.Request) (*orchestrators.PhotoUpload, error) {
	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, media.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 && strings.TrimSpace(header.Filename) == "" {
		return nil, nil
	}
	if len(data) > media.MaxUploadBytes {
		return nil, media.ErrTooLarge
	}
	return &orchestrators.PhotoUpload{Filename: header.Filename, Data: data}, nil
}
