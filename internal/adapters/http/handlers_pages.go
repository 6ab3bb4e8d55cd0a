package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"edtpro/internal/adapters/http/middleware"
	"edtpro/internal/application/projections"
	"edtpro/internal/domain/navigation"
)

// handleDashboard renders the dashboard variant of the session role.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
		return
	}

	view := projections.SelectDashboard(sess.User)
	if _, fallback := view.(projections.FallbackView); fallback {
		slog.Warn("dashboard_fallback", "user_id", sess.User.ID, "role", sess.User.Role)
	}
	renderTemplate(w, r, view.Template()+".html", map[string]any{
		"View": view,
		"User": sess.User,
	})
}

// handleSection renders the pages of the authenticated area whose content the API serves
// (timetable and the administration sections).
func handleSection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
		return
	}

	page, found := projections.QuerySectionPage(sess.User.Role, r.URL.Path)
	if !found {
		http.NotFound(w, r)
		return
	}
	renderTemplate(w, r, "section.html", map[string]any{
		"Page": page,
		"User": sess.User,
	})
}

// handleHealthz reports liveness and whether the client storage answers.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if app.Options.Ready != nil {
		if err := app.Options.Ready(r.Context()); err != nil {
			slog.Warn("health_check_failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
			return
		}
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handlePerf returns request, storage and upstream timings as JSON.
// Query: minutes (window, default 60), top (entries per list, default 10)
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if app.Collector == nil {
		http.NotFound(w, r)
		return
	}
	minutes := queryInt(r, "minutes", 60)
	top := queryInt(r, "top", 10)
	snap := app.Collector.Snapshot(time.Now().Add(-time.Duration(minutes)*time.Minute), top)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
