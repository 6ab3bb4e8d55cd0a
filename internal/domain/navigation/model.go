package navigation

import (
	"strings"

	"edtpro/internal/domain/account"
)

// Section identifies the functional area a path belongs to.
type Section string

// Section constants
const (
	SectionDashboard   Section = "dashboard"
	SectionDepartments Section = "departments"
	SectionLevels      Section = "levels"
	SectionSubjects    Section = "subjects"
	SectionRooms       Section = "rooms"
	SectionSessions    Section = "sessions"
	SectionUsers       Section = "users"
	SectionTimetable   Section = "timetable"
	SectionGrades      Section = "grades"
)

// Landing paths
const (
	HomePath  = "/dashboard"
	LoginPath = "/login"
)

// sectionRules maps path fragments to sections. The longest matching fragment wins.
var sectionRules = []struct {
	fragment string
	section  Section
}{
	{"/departements", SectionDepartments},
	{"/admin/niveaux", SectionLevels},
	{"admin/matieres", SectionSubjects},
	{"/admin/salles", SectionRooms},
	{"/admin/seances", SectionSessions},
	{"/admin/users", SectionUsers},
	{"/emploi-du-temps", SectionTimetable},
	{"/enseignant/grades", SectionGrades},
}

// SectionFor derives the section tag of a path.
// POST: Returns SectionDashboard when no fragment matches
func SectionFor(path string) Section {
	best := SectionDashboard
	bestLen := 0
	for _, rule := range sectionRules {
		if len(rule.fragment) > bestLen && strings.Contains(path, rule.fragment) {
			best = rule.section
			bestLen = len(rule.fragment)
		}
	}
	return best
}

// Entry is one link of the shared header.
type Entry struct {
	Path    string
	Label   string
	Icon    string
	Section Section
}

// IsActive reports whether the entry is the one for the current section.
func (e Entry) IsActive(current Section) bool {
	return e.Section == current
}

var (
	entryDashboard   = Entry{Path: HomePath, Label: "Tableau de bord", Icon: "home", Section: SectionDashboard}
	entryTimetable   = Entry{Path: "/emploi-du-temps", Label: "Emploi du temps", Icon: "calendar", Section: SectionTimetable}
	entryDepartments = Entry{Path: "/admin/departements", Label: "Départements", Icon: "building", Section: SectionDepartments}
	entryLevels      = Entry{Path: "/admin/niveaux", Label: "Niveaux", Icon: "layers", Section: SectionLevels}
	entrySubjects    = Entry{Path: "/admin/matieres", Label: "Matières", Icon: "book", Section: SectionSubjects}
	entryRooms       = Entry{Path: "/admin/salles", Label: "Salles", Icon: "door", Section: SectionRooms}
	entrySessions    = Entry{Path: "/admin/seances", Label: "Séances", Icon: "clock", Section: SectionSessions}
	entryUsers       = Entry{Path: "/admin/users", Label: "Utilisateurs", Icon: "users", Section: SectionUsers}
	entryGrades      = Entry{Path: "/enseignant/grades", Label: "Saisie des notes", Icon: "pencil", Section: SectionGrades}
)

var menus = map[account.Role][]Entry{
	account.RoleAdmin: {
		entryDashboard, entryDepartments, entryLevels, entrySubjects,
		entryRooms, entrySessions, entryUsers, entryTimetable,
	},
	account.RoleStudent: {entryDashboard, entryTimetable},
	account.RoleTeacher: {entryDashboard, entryTimetable, entryGrades},
}

// Build returns the ordered navigation entries of a role.
// POST: Returns a fresh copy; unknown roles get only the dashboard entry
func Build(role account.Role) []Entry {
	menu, ok := menus[role]
	if !ok {
		return []Entry{entryDashboard}
	}
	out := make([]Entry, len(menu))
	copy(out, menu)
	return out
}

// Item is an entry resolved against the current path, ready for rendering.
type Item struct {
	Entry
	Active bool
}

// Resolve builds the menu of role with the active flag set for path.
func Resolve(role account.Role, path string) []Item {
	current := SectionFor(path)
	entries := Build(role)
	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = Item{Entry: e, Active: e.IsActive(current)}
	}
	return items
}
