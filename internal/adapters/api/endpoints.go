package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"edtpro/internal/domain/account"
	"edtpro/internal/domain/grades"
)

// LoginResult is the body of a successful login.
type LoginResult struct {
	AccessToken string
	User        account.Profile
}

// Login exchanges credentials for a token and profile.
// POST: A 401 is a *Error carrying the server message, not ErrUnauthorized
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	req, err := jsonRequest(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	if err != nil {
		return LoginResult{}, err
	}
	var body struct {
		AccessToken string          `json:"accessToken"`
		User        json.RawMessage `json:"user"`
	}
	if err := c.do(ctx, req, &body); err != nil {
		return LoginResult{}, err
	}
	if body.AccessToken == "" {
		return LoginResult{}, fmt.Errorf("%w: login response has no token", ErrUnavailable)
	}
	user, err := account.ParseProfile(string(body.User))
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: login response profile: %v", ErrUnavailable, err)
	}
	return LoginResult{AccessToken: body.AccessToken, User: user}, nil
}

// RequestPasswordReset asks the API to mail a reset link and returns its message.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	req, err := jsonRequest(http.MethodPost, "/api/auth/request-password-reset", "", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, req, &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

// ListLevels returns every niveau.
func (c *Client) ListLevels(ctx context.Context, token string) ([]account.Level, error) {
	var out []account.Level
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/niveaux", token: token}, &out)
	return out, err
}

// ListSubjects returns every matiere.
func (c *Client) ListSubjects(ctx context.Context, token string) ([]account.Subject, error) {
	var out []account.Subject
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/matieres", token: token}, &out)
	return out, err
}

// GetUser returns the full profile of a user.
func (c *Client) GetUser(ctx context.Context, token string, id account.ID) (account.Profile, error) {
	var raw json.RawMessage
	path := "/api/utilisateurs/" + url.PathEscape(id.String())
	if err := c.do(ctx, request{method: http.MethodGet, path: path, token: token}, &raw); err != nil {
		return account.Profile{}, err
	}
	p, err := account.ParseProfile(string(raw))
	if err != nil {
		return account.Profile{}, fmt.Errorf("%w: user %s: %v", ErrUnavailable, id, err)
	}
	return p, nil
}

// Photo is an already normalised image file.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProfileUpdate is the multipart body of a profile edit.
// Nil and empty fields are not sent.
type ProfileUpdate struct {
	Name               string
	Email              string
	CurrentPassword    string
	NewPassword        string
	Photo              *Photo
	RegistrationNumber *string
	LevelID            account.ID
	Position           *string
	SubjectIDs         []account.ID
}

// encode writes u as multipart/form-data.
func (u ProfileUpdate) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"nom", u.Name},
		{"email", u.Email},
		{"currentPassword", u.CurrentPassword},
		{"newPassword", u.NewPassword},
		{"niveauId", u.LevelID.String()},
	}
	if u.RegistrationNumber != nil {
		fields = append(fields, struct{ name, value string }{"matricule", *u.RegistrationNumber})
	}
	if u.Position != nil {
		fields = append(fields, struct{ name, value string }{"poste", *u.Position})
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	for _, id := range u.SubjectIDs {
		if err := mw.WriteField("matiereIds", id.String()); err != nil {
			return nil, "", err
		}
	}

	if u.Photo != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, u.Photo.Filename))
		h.Set("Content-Type", u.Photo.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(u.Photo.Data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// UpdateUser sends a profile edit and returns the updated profile fragment.
// The fragment is not validated; callers merge it into the stored profile.
func (c *Client) UpdateUser(ctx context.Context, token string, id account.ID, u ProfileUpdate) (account.Profile, error) {
	body, contentType, err := u.encode()
	if err != nil {
		return account.Profile{}, err
	}
	var out account.Profile
	req := request{
		method:      http.MethodPatch,
		path:        "/api/utilisateurs/" + url.PathEscape(id.String()),
		token:       token,
		body:        body,
		contentType: contentType,
	}
	if err := c.do(ctx, req, &out); err != nil {
		return account.Profile{}, err
	}
	return out, nil
}

// GetGradeSheet returns the enrolled students of a subject with their current grades.
func (c *Client) GetGradeSheet(ctx context.Context, token string, subjectID account.ID) (grades.Sheet, error) {
	var rows []grades.Row
	path := "/api/matieres/" + url.PathEscape(subjectID.String()) + "/notes"
	if err := c.do(ctx, request{method: http.MethodGet, path: path, token: token}, &rows); err != nil {
		return grades.Sheet{}, err
	}
	return grades.Sheet{SubjectID: subjectID, Rows: rows}, nil
}

// SaveGrades submits every grade of a subject in one call.
func (c *Client) SaveGrades(ctx context.Context, token string, subjectID account.ID, entries []grades.Entry) error {
	path := "/api/matieres/" + url.PathEscape(subjectID.String()) + "/notes"
	req, err := jsonRequest(http.MethodPut, path, token, map[string][]grades.Entry{"notes": entries})
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}
