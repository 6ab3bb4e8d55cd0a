package projections

import (
	"context"
	"errors"

	"edtpro/internal/domain/account"
	"edtpro/internal/domain/grades"
)

// ErrUnknownSubject is returned when a teacher asks for a subject outside their list.
var ErrUnknownSubject = errors.New("matière inconnue")

// GradeSheetAPI defines the API call needed by the grade sheet projection.
type GradeSheetAPI interface {
	GetGradeSheet(ctx context.Context, token string, subjectID account.ID) (grades.Sheet, error)
}

// GetGradeSheetQuery carries input for the grade sheet projection.
type GetGradeSheetQuery struct {
	Token     string
	User      account.Profile
	SubjectID account.ID // empty selects the first subject of the teacher
	Submitted map[account.ID]string
	Errors    grades.FieldErrors
}

// GetGradeSheetDeps holds dependencies for the grade sheet projection.
type GetGradeSheetDeps struct {
	API GradeSheetAPI
}

// GradeRowView is one editable row.
type GradeRowView struct {
	StudentID          account.ID
	StudentName        string
	RegistrationNumber string
	Value              string
	Error              string
}

// GradeSheetResult carries the output of the grade sheet projection.
type GradeSheetResult struct {
	Subjects   []TeacherSubjectLine
	Selected   account.ID
	Rows       []GradeRowView
	Incomplete bool
}

// GetGradeSheet builds the grade entry screen of a teacher.
// Submitted values and field errors of a failed save are shown in place of stored grades.
// PRE: User is an ENSEIGNANT
// POST: Incomplete is set and no API call happens when the teacher has no subject
func GetGradeSheet(ctx context.Context, query GetGradeSheetQuery, deps GetGradeSheetDeps) (GradeSheetResult, error) {
	res := GradeSheetResult{Incomplete: query.User.IsIncomplete()}
	if query.User.Teacher == nil || len(query.User.Teacher.Subjects) == 0 {
		return res, nil
	}
	res.Subjects = subjectLines(query.User.Teacher.Subjects)

	res.Selected = query.SubjectID
	if res.Selected == "" {
		res.Selected = res.Subjects[0].ID
	}
	if !query.User.TeachesSubject(res.Selected) {
		return res, ErrUnknownSubject
	}

	sheet, err := deps.API.GetGradeSheet(ctx, query.Token, res.Selected)
	if err != nil {
		return res, err
	}
	res.Rows = make([]GradeRowView, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		view := GradeRowView{
			StudentID:          row.StudentID,
			StudentName:        row.StudentName,
			RegistrationNumber: row.RegistrationNumber,
			Value:              grades.Format(row.Grade),
			Error:              query.Errors[row.StudentID],
		}
		if text, ok := query.Submitted[row.StudentID]; ok {
			view.Value = text
		}
		res.Rows = append(res.Rows, view)
	}
	return res, nil
}
