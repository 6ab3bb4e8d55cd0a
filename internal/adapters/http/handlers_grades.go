package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"edtpro/internal/adapters/http/middleware"
	"edtpro/internal/application/orchestrators"
	"edtpro/internal/application/projections"
	"edtpro/internal/application/session"
	"edtpro/internal/domain/account"
	"edtpro/internal/domain/grades"
	"edtpro/internal/domain/navigation"
)

// gradeFieldPrefix prefixes the form field of one student: grade_<studentId>.
const gradeFieldPrefix = "grade_"

// handleGrades handles GET (sheet of ?subject=) and POST (save every row) for /enseignant/grades
func handleGrades(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
		return
	}

	switch r.Method {
	case http.MethodGet:
		q := projections.GetGradeSheetQuery{
			Token:     sess.AccessToken,
			User:      sess.User,
			SubjectID: account.ID(r.URL.Query().Get("subject")),
		}
		renderGradeSheet(w, r, http.StatusOK, q, map[string]any{
			"Saved":   r.URL.Query().Get("saved") == "1",
			"Message": orchestrators.MsgGradesSaved,
		})
	case http.MethodPost:
		saveGrades(w, r, sess)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func saveGrades(w http.ResponseWriter, r *http.Request, sess session.Session) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	subjectID := account.ID(r.PostFormValue("subject"))
	submitted := submittedGrades(r.PostForm)

	_, err := orchestrators.ExecuteSaveGrades(r.Context(), orchestrators.SaveGradesInput{
		ClientID:  middleware.ClientIDFromContext(r.Context()),
		Session:   sess,
		SubjectID: subjectID,
		Submitted: submitted,
	}, orchestrators.SaveGradesDeps{Sessions: app.Sessions, API: app.API})

	q := projections.GetGradeSheetQuery{
		Token:     sess.AccessToken,
		User:      sess.User,
		SubjectID: subjectID,
		Submitted: submitted,
	}
	var rowErrs grades.FieldErrors
	switch {
	case err == nil:
		http.Redirect(w, r, "/enseignant/grades?"+url.Values{"subject": {subjectID.String()}, "saved": {"1"}}.Encode(), http.StatusSeeOther)
	case orchestrators.IsSessionExpired(err):
		http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
	case errors.Is(err, orchestrators.ErrNotTeacher), errors.Is(err, orchestrators.ErrNotYourSubject):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.As(err, &rowErrs):
		q.Errors = rowErrs
		renderGradeSheet(w, r, http.StatusUnprocessableEntity, q, map[string]any{"Error": rowErrs.Error()})
	case errors.Is(err, grades.ErrNoRows):
		renderGradeSheet(w, r, http.StatusUnprocessableEntity, q, map[string]any{"Error": err.Error()})
	default:
		_, msg, status, ok := formFailure(err, orchestrators.MsgGenericFallback)
		if !ok {
			internalError(w, err)
			return
		}
		renderGradeSheet(w, r, status, q, map[string]any{"Error": msg})
	}
}

// submittedGrades extracts grade_<studentId> fields.
// Text breaking the input pattern is dropped, so the stored grade of that row is kept.
func submittedGrades(form url.Values) map[account.ID]string {
	out := make(map[account.ID]string)
	for name, values := range form {
		id, found := strings.CutPrefix(name, gradeFieldPrefix)
		if !found || id == "" || len(values) == 0 {
			continue
		}
		text, accepted := grades.AcceptInput("", strings.TrimSpace(values[0]))
		if !accepted {
			slog.Info("grades_event", "event", "input_rejected", "student_id", id)
			continue
		}
		out[account.ID(id)] = text
	}
	return out
}

// renderGradeSheet loads the sheet for q and renders it with extra page data.
func renderGradeSheet(w http.ResponseWriter, r *http.Request, status int, q projections.GetGradeSheetQuery, data map[string]any) {
	res, err := projections.GetGradeSheet(r.Context(), q, projections.GetGradeSheetDeps{API: app.API})
	if errors.Is(err, projections.ErrUnknownSubject) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	data["Sheet"] = res
	data["FieldPrefix"] = gradeFieldPrefix
	renderTemplateStatus(w, r, status, "grades.html", data)
}
