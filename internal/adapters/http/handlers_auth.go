package web

import (
	"net/http"

	"edtpro/internal/adapters/http/middleware"
	"edtpro/internal/application/orchestrators"
	"edtpro/internal/domain/navigation"
)

// handleLogin handles GET (form) and POST (authenticate) for /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := middleware.ClientIDFromContext(ctx)

	if r.Method == http.MethodGet {
		// If already logged in, redirect to dashboard
		_, found, err := app.Sessions.Load(ctx, clientID)
		if err != nil {
			internalError(w, err)
			return
		}
		if found {
			http.Redirect(w, r, navigation.HomePath, http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "login.html", map[string]any{})
		return
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}

		input := orchestrators.LoginInput{
			ClientID: clientID,
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}
		deps := orchestrators.LoginDeps{
			Sessions:  app.Sessions,
			API:       app.API,
			Validator: app.Validator,
		}

		if _, err := orchestrators.ExecuteLogin(ctx, input, deps); err != nil {
			fields, msg, status, ok := formFailure(err, orchestrators.MsgLoginFallback)
			if !ok {
				internalError(w, err)
				return
			}
			renderTemplateStatus(w, r, status, "login.html", map[string]any{
				"Email":  input.Email,
				"Errors": fields,
				"Error":  msg,
			})
			return
		}

		http.Redirect(w, r, navigation.HomePath, http.StatusSeeOther)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleForgotPassword handles GET (form) and POST (request a reset email) for /forgot-password
func handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "forgot_password.html", map[string]any{})
		return
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}

		input := orchestrators.RequestPasswordResetInput{Email: r.FormValue("email")}
		msg, err := orchestrators.ExecuteRequestPasswordReset(r.Context(), input, orchestrators.RequestPasswordResetDeps{
			API:       app.API,
			Validator: app.Validator,
		})
		if err != nil {
			fields, errMsg, status, ok := formFailure(err, orchestrators.MsgGenericFallback)
			if !ok {
				internalError(w, err)
				return
			}
			renderTemplateStatus(w, r, status, "forgot_password.html", map[string]any{
				"Email":  input.Email,
				"Errors": fields,
				"Error":  errMsg,
			})
			return
		}

		renderTemplate(w, r, "forgot_password.html", map[string]any{
			"Message": msg,
		})
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	input := orchestrators.LogoutInput{ClientID: middleware.ClientIDFromContext(r.Context())}
	if err := orchestrators.ExecuteLogout(r.Context(), input, orchestrators.LogoutDeps{Sessions: app.Sessions}); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
}

// handleRoot sends / to the authenticated landing page; the guard there decides the rest.
func handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, navigation.HomePath, http.StatusSeeOther)
}
