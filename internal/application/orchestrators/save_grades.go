package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"edtpro/internal/application/session"
	"edtpro/internal/domain/account"
	"edtpro/internal/domain/grades"
)

var (
	ErrNotTeacher     = errors.New("seuls les enseignants peuvent saisir des notes")
	ErrNotYourSubject = errors.New("cette matière ne fait pas partie de vos enseignements")
)

// GradesAPIForSaveGrades defines the API calls needed by SaveGrades.
type GradesAPIForSaveGrades interface {
	GetGradeSheet(ctx context.Context, token string, subjectID account.ID) (grades.Sheet, error)
	SaveGrades(ctx context.Context, token string, subjectID account.ID, entries []grades.Entry) error
}

// SaveGradesInput carries input for the grade entry orchestrator.
type SaveGradesInput struct {
	ClientID  string
	Session   session.Session
	SubjectID account.ID
	Submitted map[account.ID]string
}

// SaveGradesDeps holds dependencies for SaveGrades.
type SaveGradesDeps struct {
	Sessions SessionClearer
	API      GradesAPIForSaveGrades
}

// ExecuteSaveGrades validates every row of the subject and saves them in one call.
// PRE: Session belongs to an ENSEIGNANT
// POST: Either every row is sent, or nothing is sent and grades.FieldErrors names the bad rows
// INVARIANT: Only subjects listed on the teacher profile are accepted
func ExecuteSaveGrades(ctx context.Context, input SaveGradesInput, deps SaveGradesDeps) (int, error) {
	user := input.Session.User
	if user.Role != account.RoleTeacher {
		return 0, ErrNotTeacher
	}
	if !user.TeachesSubject(input.SubjectID) {
		slog.Warn("grades_event", "event", "foreign_subject", "user_id", user.ID, "subject_id", input.SubjectID)
		return 0, ErrNotYourSubject
	}

	sheet, err := deps.API.GetGradeSheet(ctx, input.Session.AccessToken, input.SubjectID)
	if err != nil {
		return 0, expireOnUnauthorized(ctx, deps.Sessions, input.ClientID, err)
	}
	entries, err := grades.Collect(sheet, input.Submitted)
	if err != nil {
		return 0, err
	}
	if err := deps.API.SaveGrades(ctx, input.Session.AccessToken, input.SubjectID, entries); err != nil {
		return 0, expireOnUnauthorized(ctx, deps.Sessions, input.ClientID, err)
	}

	slog.Info("grades_event", "event", "grades_saved", "user_id", user.ID, "subject_id", input.SubjectID, "rows", len(entries))
	return len(entries), nil
}
