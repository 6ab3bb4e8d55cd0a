package web

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"edtpro/internal/adapters/api"
	"edtpro/internal/adapters/http/middleware"
	"edtpro/internal/application/orchestrators"
	"edtpro/internal/application/validation"
	"edtpro/internal/domain/account"
	"edtpro/internal/domain/grades"
	"edtpro/internal/domain/navigation"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

// renderTemplateStatus renders a page inside the shared layout.
// The page is rendered to a buffer first so a template failure never leaves half a page.
func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())

	funcMap := template.FuncMap{
		"isLoggedIn": func() bool { return loggedIn },
		"currentUser": func() account.Profile {
			return sess.User
		},
		"csrfField": func() template.HTML { return csrf.TemplateField(r) },
		"csrfToken": func() string { return csrf.Token(r) },
		"navItems": func() []navigation.Item {
			if !loggedIn {
				return nil
			}
			return navigation.Resolve(sess.User.Role, r.URL.Path)
		},
		"fieldError":   func(errs map[string]string, name string) string { return errs[name] },
		"initials":     func(p account.Profile) string { return p.Initials() },
		"incomplete":   func(p account.Profile) bool { return p.IsIncomplete() },
		"roleLabel":    func(role account.Role) string { return role.Label() },
		"gradePattern": func() string { return grades.InputPattern },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS,
		"templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// formFailure classifies a failed submission for re-rendering the form.
// POST: ok is false for internal failures, which must go through internalError
func formFailure(err error, fallback string) (fields map[string]string, message string, status int, ok bool) {
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return fe, "", http.StatusUnprocessableEntity, true
	}
	if errors.Is(err, api.ErrUnavailable) {
		return nil, orchestrators.MsgUnavailable, http.StatusServiceUnavailable, true
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return nil, orchestrators.UserMessage(err, fallback), http.StatusUnprocessableEntity, true
	}
	return nil, "", 0, false
}

// expireSession ends a session the API no longer accepts and sends the browser to login.
func expireSession(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.ClientIDFromContext(r.Context())
	if err := orchestrators.ExecuteLogout(r.Context(), orchestrators.LogoutInput{ClientID: clientID},
		orchestrators.LogoutDeps{Sessions: app.Sessions}); err != nil {
		slog.Error("internal_error", "error", err, "step", "expire_session")
	}
	http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
}

// apiFailure answers a failed API read of a protected page.
func apiFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case orchestrators.IsSessionExpired(err):
		expireSession(w, r)
	case errors.Is(err, api.ErrUnavailable):
		renderTemplateStatus(w, r, http.StatusServiceUnavailable, "error.html", map[string]any{
			"Error": orchestrators.MsgUnavailable,
		})
	default:
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			renderTemplateStatus(w, r, http.StatusBadGateway, "error.html", map[string]any{
				"Error": orchestrators.UserMessage(err, orchestrators.MsgGenericFallback),
			})
			return
		}
		internalError(w, err)
	}
}
