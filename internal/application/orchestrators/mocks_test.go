package orchestrators

import (
	"context"
	"time"

	"edtpro/internal/adapters/api"
	"edtpro/internal/adapters/storage/clientstore"
	"edtpro/internal/application/session"
	"edtpro/internal/application/validation"
	"edtpro/internal/domain/account"
	"edtpro/internal/domain/grades"
)

const testClientID = "client-001"

var testValidator = validation.New()

func newTestSessions() (*session.Accessor, *clientstore.MemoryStore) {
	store := clientstore.NewMemoryStore(time.Hour)
	return session.NewAccessor(store), store
}

func teacherProfile() account.Profile {
	poste := "Vacataire"
	return account.Profile{
		ID:    "12",
		Name:  "Moussa Ba",
		Email: "moussa@edt.pro",
		Role:  account.RoleTeacher,
		Teacher: &account.TeacherProfile{
			ID:       "3",
			Position: &poste,
			Subjects: []account.TeacherSubject{{SubjectID: "5"}, {SubjectID: "8"}},
		},
	}
}

func studentProfile() account.Profile {
	return account.Profile{
		ID:      "20",
		Name:    "Awa Diop",
		Email:   "awa@edt.pro",
		Role:    account.RoleStudent,
		Student: &account.StudentProfile{ID: "4", Level: &account.Level{ID: "1", Name: "L1"}},
	}
}

// mockAPI implements every API interface used by the orchestrators.
type mockAPI struct {
	loginResult api.LoginResult
	loginErr    error
	calls       int

	resetMsg string
	resetErr error

	updateFragment account.Profile
	updateErr      error
	lastUpdate     api.ProfileUpdate
	lastToken      string

	sheet      grades.Sheet
	sheetErr   error
	saveErr    error
	savedNotes []grades.Entry
}

// Login implements AuthAPIForLogin.
func (m *mockAPI) Login(_ context.Context, email, password string) (api.LoginResult, error) {
	m.calls++
	return m.loginResult, m.loginErr
}

// RequestPasswordReset implements AuthAPIForPasswordReset.
func (m *mockAPI) RequestPasswordReset(_ context.Context, email string) (string, error) {
	m.calls++
	return m.resetMsg, m.resetErr
}

// UpdateUser implements UserAPIForUpdateProfile.
func (m *mockAPI) UpdateUser(_ context.Context, token string, id account.ID, u api.ProfileUpdate) (account.Profile, error) {
	m.calls++
	m.lastToken = token
	m.lastUpdate = u
	return m.updateFragment, m.updateErr
}

// GetGradeSheet implements GradesAPIForSaveGrades.
func (m *mockAPI) GetGradeSheet(_ context.Context, token string, subjectID account.ID) (grades.Sheet, error) {
	m.calls++
	s := m.sheet
	s.SubjectID = subjectID
	return s, m.sheetErr
}

// SaveGrades implements GradesAPIForSaveGrades.
func (m *mockAPI) SaveGrades(_ context.Context, token string, subjectID account.ID, entries []grades.Entry) error {
	m.calls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedNotes = entries
	return nil
}
