package projections

import (
	"edtpro/internal/domain/account"
	"edtpro/internal/domain/navigation"
)

// DashboardView is the dashboard variant for one role.
// Implementations: AdminView, StudentView, TeacherView, FallbackView.
type DashboardView interface {
	// Template names the page template that renders the view.
	Template() string
	dashboardView()
}

// AdminCard is one static panel of the administrator dashboard. Body is markdown.
type AdminCard struct {
	Title string
	Icon  string
	Path  string
	Body  string
}

// AdminView is the administrator dashboard. It is fully static.
type AdminView struct {
	Cards []AdminCard
}

// StudentView is the student dashboard.
type StudentView struct {
	Name               string
	RegistrationNumber string
	Level              string
	Department         string
	Incomplete         bool
}

// TeacherSubjectLine is one subject on the teacher dashboard.
type TeacherSubjectLine struct {
	ID    account.ID
	Name  string
	Level string
}

// TeacherView is the teacher dashboard.
type TeacherView struct {
	Name       string
	Position   string
	Subjects   []TeacherSubjectLine
	Incomplete bool
}

// FallbackView is rendered only for a role outside the closed set.
type FallbackView struct{}

func (AdminView) Template() string    { return "dashboard_admin" }
func (StudentView) Template() string  { return "dashboard_student" }
func (TeacherView) Template() string  { return "dashboard_teacher" }
func (FallbackView) Template() string { return "dashboard_fallback" }

func (AdminView) dashboardView()    {}
func (StudentView) dashboardView()  {}
func (TeacherView) dashboardView()  {}
func (FallbackView) dashboardView() {}

var adminCards = []AdminCard{
	{
		Title: "Départements", Icon: "building", Path: "/admin/departements",
		Body: "Créez et renommez les **départements** qui regroupent les niveaux.",
	},
	{
		Title: "Niveaux", Icon: "layers", Path: "/admin/niveaux",
		Body: "Gérez les **niveaux** d'études et leur rattachement à un département.",
	},
	{
		Title: "Matières", Icon: "book", Path: "/admin/matieres",
		Body: "Définissez les **matières** enseignées à chaque niveau.",
	},
	{
		Title: "Salles", Icon: "door", Path: "/admin/salles",
		Body: "Référencez les **salles** et leur capacité.",
	},
	{
		Title: "Séances", Icon: "clock", Path: "/admin/seances",
		Body: "Planifiez les **séances** de cours. Les conflits de salle et d'enseignant sont signalés par le serveur.",
	},
	{
		Title: "Utilisateurs", Icon: "users", Path: "/admin/users",
		Body: "Créez les comptes *administrateur*, *enseignant* et *étudiant*.",
	},
}

// SelectDashboard picks the dashboard variant of a profile.
// PRE: profile was parsed and validated
// POST: Exactly one variant is returned; FallbackView only for an unknown role
func SelectDashboard(p account.Profile) DashboardView {
	switch p.Role {
	case account.RoleAdmin:
		cards := make([]AdminCard, len(adminCards))
		copy(cards, adminCards)
		return AdminView{Cards: cards}
	case account.RoleStudent:
		return studentView(p)
	case account.RoleTeacher:
		return teacherView(p)
	}
	return FallbackView{}
}

func studentView(p account.Profile) StudentView {
	v := StudentView{Name: p.Name, Incomplete: p.IsIncomplete()}
	if p.Student == nil {
		return v
	}
	if p.Student.RegistrationNumber != nil {
		v.RegistrationNumber = *p.Student.RegistrationNumber
	}
	if lvl := p.Student.Level; lvl != nil {
		v.Level = lvl.Name
		if lvl.Department != nil {
			v.Department = lvl.Department.Name
		}
	}
	return v
}

func teacherView(p account.Profile) TeacherView {
	v := TeacherView{Name: p.Name, Incomplete: p.IsIncomplete()}
	if p.Teacher == nil {
		return v
	}
	if p.Teacher.Position != nil {
		v.Position = *p.Teacher.Position
	}
	v.Subjects = subjectLines(p.Teacher.Subjects)
	return v
}

func subjectLines(subjects []account.TeacherSubject) []TeacherSubjectLine {
	lines := make([]TeacherSubjectLine, 0, len(subjects))
	for _, ts := range subjects {
		line := TeacherSubjectLine{ID: ts.SubjectID, Name: "Matière " + ts.SubjectID.String()}
		if s := ts.Subject; s != nil {
			line.Name = s.Name
			if s.Level != nil {
				line.Level = s.Level.Name
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// SectionPage is a placeholder page of the authenticated area whose content is served elsewhere.
type SectionPage struct {
	Title   string
	Section navigation.Section
}

// QuerySectionPage returns the page of a navigation entry of role.
// POST: ok is false unless path is exactly the path of one of role's entries
func QuerySectionPage(role account.Role, path string) (page SectionPage, ok bool) {
	for _, e := range navigation.Build(role) {
		if e.Path == path && e.Section != navigation.SectionDashboard {
			return SectionPage{Title: e.Label, Section: e.Section}, true
		}
	}
	return SectionPage{}, false
}
