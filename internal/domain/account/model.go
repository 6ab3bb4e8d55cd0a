package account

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Role is one of the three closed EDT Pro roles.
type Role string

// Role constants
const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "ETUDIANT"
	RoleTeacher Role = "ENSEIGNANT"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RoleAdmin, RoleStudent, RoleTeacher}

// Domain errors
var (
	ErrEmptyProfile = errors.New("stored profile is empty")
	ErrInvalidRole  = errors.New("role must be one of: ADMIN, ETUDIANT, ENSEIGNANT")
	ErrMissingID    = errors.New("profile has no id")
)

// ID is an identifier issued by the API. It accepts JSON numbers and strings.
type ID string

// UnmarshalJSON accepts both `42` and `"42"`.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as text.
func (id ID) String() string { return string(id) }

// Department is a departement.
type Department struct {
	ID   ID     `json:"id"`
	Name string `json:"nom"`
}

// Level is a niveau, attached to a department.
type Level struct {
	ID         ID          `json:"id"`
	Name       string      `json:"nom"`
	Department *Department `json:"departement,omitempty"`
}

// Subject is a matiere taught at one level.
type Subject struct {
	ID    ID     `json:"id"`
	Name  string `json:"nom"`
	Level *Level `json:"niveau,omitempty"`
}

// TeacherSubject links a teacher to a subject.
type TeacherSubject struct {
	SubjectID ID       `json:"matiereId"`
	Subject   *Subject `json:"matiere,omitempty"`
}

// StudentProfile is the ETUDIANT substructure.
type StudentProfile struct {
	ID                 ID      `json:"id"`
	RegistrationNumber *string `json:"matricule"`
	Level              *Level  `json:"niveau"`
}

// TeacherProfile is the ENSEIGNANT substructure.
type TeacherProfile struct {
	ID       ID               `json:"id"`
	Position *string          `json:"poste"`
	Subjects []TeacherSubject `json:"matieres"`
}

// Profile is the authenticated user as returned by the API and kept in client storage.
type Profile struct {
	ID      ID              `json:"id"`
	Name    string          `json:"nom"`
	Email   string          `json:"email"`
	Role    Role            `json:"role"`
	Photo   string          `json:"photo,omitempty"`
	Student *StudentProfile `json:"etudiant,omitempty"`
	Teacher *TeacherProfile `json:"enseignant,omitempty"`
}

// ParseProfile decodes a stored or received profile.
// PRE: raw is the JSON text of a profile
// POST: Returns the profile, or an error if it is malformed or its role is unknown
func ParseProfile(raw string) (Profile, error) {
	if strings.TrimSpace(raw) == "" {
		return Profile{}, ErrEmptyProfile
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, err
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate checks the invariants every stored profile must hold.
// INVARIANT: Profile fields are not mutated
func (p *Profile) Validate() error {
	if !IsValidRole(p.Role) {
		return ErrInvalidRole
	}
	if p.ID == "" {
		return ErrMissingID
	}
	return nil
}

// Encode serialises the profile for client storage.
func (p Profile) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsIncomplete reports whether a student or teacher lacks the substructure of its role.
// Admin profiles are never incomplete.
func (p *Profile) IsIncomplete() bool {
	switch p.Role {
	case RoleStudent:
		return p.Student == nil || p.Student.Level == nil
	case RoleTeacher:
		return p.Teacher == nil || len(p.Teacher.Subjects) == 0
	}
	return false
}

// TeachesSubject reports whether the teacher profile lists subjectID.
func (p *Profile) TeachesSubject(subjectID ID) bool {
	if p.Teacher == nil {
		return false
	}
	for _, s := range p.Teacher.Subjects {
		if s.SubjectID == subjectID {
			return true
		}
	}
	return false
}

// Initials returns up to two upper-case initials of the display name, for the avatar chip.
func (p *Profile) Initials() string {
	var out []rune
	for _, f := range strings.Fields(p.Name) {
		out = append(out, []rune(strings.ToUpper(f))[0])
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

// Merge applies an updated profile fragment returned by the API.
// Empty fields in the fragment keep the current value; the role never changes.
// PRE: fragment comes from a successful profile update
// POST: Returns the merged profile
func (p Profile) Merge(fragment Profile) Profile {
	if fragment.Name != "" {
		p.Name = fragment.Name
	}
	if fragment.Email != "" {
		p.Email = fragment.Email
	}
	if fragment.Photo != "" {
		p.Photo = fragment.Photo
	}
	if fragment.Student != nil && p.Role == RoleStudent {
		p.Student = fragment.Student
	}
	if fragment.Teacher != nil && p.Role == RoleTeacher {
		p.Teacher = fragment.Teacher
	}
	return p
}

// IsValidRole reports whether role belongs to the closed role set.
func IsValidRole(role Role) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Label returns the French display label of a role.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrateur"
	case RoleStudent:
		return "Étudiant"
	case RoleTeacher:
		return "Enseignant"
	}
	return "Utilisateur"
}
