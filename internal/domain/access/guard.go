// Package access decides whether a visitor may see a protected page.
// The decision is a pure value; the HTTP middleware performs the redirect.
package access

import (
	"strings"

	"edtpro/internal/domain/account"
	"edtpro/internal/domain/navigation"
)

// Outcome is the state of the route guard for one navigation.
type Outcome int

// Outcome constants. Unchecked is the zero value: nothing may render in it.
const (
	Unchecked Outcome = iota
	Authorized
	RedirectLogin
	RedirectHome
)

// String returns the log name of the outcome.
func (o Outcome) String() string {
	switch o {
	case Authorized:
		return "authorized"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	}
	return "unchecked"
}

// AdminOnlyPrefixes are reserved to ADMIN.
var AdminOnlyPrefixes = []string{
	"/admin/departements",
	"/admin/niveaux",
	"/admin/matieres",
	"/admin/salles",
	"/admin/seances",
	"/admin/users",
}

// TeacherOnlyPrefixes are reserved to ENSEIGNANT.
var TeacherOnlyPrefixes = []string{
	"/enseignant/grades",
}

// adminSections are the section tags of the admin-only pages. A path carrying
// one of them is restricted even when it is not below an admin prefix.
var adminSections = map[navigation.Section]bool{
	navigation.SectionDepartments: true,
	navigation.SectionLevels:      true,
	navigation.SectionSubjects:    true,
	navigation.SectionRooms:       true,
	navigation.SectionSessions:    true,
	navigation.SectionUsers:       true,
}

// Decision is the result of evaluating the guard.
type Decision struct {
	Outcome Outcome
	// Location is the redirect target, empty when Authorized.
	Location string
	// ClearSession asks the caller to wipe client storage (corrupt profile).
	ClearSession bool
	Profile      account.Profile
	// Reason is a short log tag.
	Reason string
}

// Evaluate runs the guard against the stored token and profile text.
// PRE: path is the request path without query string
// POST: Outcome is never Unchecked
func Evaluate(path, token, rawProfile string) Decision {
	if token == "" || rawProfile == "" {
		return Decision{Outcome: RedirectLogin, Location: navigation.LoginPath, Reason: "no_session"}
	}

	profile, err := account.ParseProfile(rawProfile)
	if err != nil {
		return Decision{Outcome: RedirectLogin, Location: navigation.LoginPath, ClearSession: true, Reason: "corrupt_profile"}
	}

	section := navigation.SectionFor(path)
	if (matchesAny(path, AdminOnlyPrefixes) || adminSections[section]) && profile.Role != account.RoleAdmin {
		return Decision{Outcome: RedirectHome, Location: navigation.HomePath, Profile: profile, Reason: "admin_only"}
	}
	if (matchesAny(path, TeacherOnlyPrefixes) || section == navigation.SectionGrades) && profile.Role != account.RoleTeacher {
		return Decision{Outcome: RedirectHome, Location: navigation.HomePath, Profile: profile, Reason: "teacher_only"}
	}

	return Decision{Outcome: Authorized, Profile: profile}
}

// matchesAny reports whether path equals a prefix or lies below it.
func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
