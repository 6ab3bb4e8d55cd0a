package grades

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"edtpro/internal/domain/account"
)

// Grade bounds
const (
	MinGrade      = 0.0
	MaxGrade      = 20.0
	MaxDecimals   = 2
	maxInputRunes = 6
)

// Domain errors
var (
	ErrInvalidPattern = errors.New("la note ne doit contenir que des chiffres et au plus un point décimal")
	ErrOutOfRange     = errors.New("la note doit être comprise entre 0 et 20")
	ErrTooPrecise     = errors.New("la note accepte au plus 2 décimales")
	ErrNoRows         = errors.New("aucune note à enregistrer")
)

// InputPattern accepts an optional integer part and an optional fractional part.
// It is also the pattern attribute of grade fields.
const InputPattern = `^\d*\.?\d*$`

var inputPattern = regexp.MustCompile(InputPattern)

// Row is one student line of the grade sheet of a subject.
type Row struct {
	StudentID          account.ID `json:"studentId"`
	StudentName        string     `json:"studentName"`
	RegistrationNumber string     `json:"registrationNumber"`
	Grade              *float64   `json:"grade"`
}

// Sheet is the grade sheet of one subject.
type Sheet struct {
	SubjectID account.ID
	Rows      []Row
}

// AcceptInput applies typed text to a grade field.
// Text that breaks the input pattern is rejected and prev is returned unchanged.
// POST: accepted is false iff the returned value is prev
func AcceptInput(prev, typed string) (value string, accepted bool) {
	if len([]rune(typed)) > maxInputRunes || !inputPattern.MatchString(typed) {
		return prev, false
	}
	return typed, true
}

// Parse converts a field value to a grade.
// POST: Returns nil for an empty field; otherwise a value in [0,20] with <=2 decimals
func Parse(text string) (*float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if !inputPattern.MatchString(text) || text == "." {
		return nil, ErrInvalidPattern
	}
	if i := strings.IndexByte(text, '.'); i >= 0 && len(text)-i-1 > MaxDecimals {
		return nil, ErrTooPrecise
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, ErrInvalidPattern
	}
	if v < MinGrade || v > MaxGrade {
		return nil, ErrOutOfRange
	}
	return &v, nil
}

// Format renders a grade for an input field.
func Format(g *float64) string {
	if g == nil {
		return ""
	}
	return strconv.FormatFloat(*g, 'f', -1, 64)
}

// Entry is one grade sent to the API.
type Entry struct {
	StudentID account.ID `json:"studentId"`
	Grade     *float64   `json:"grade"`
}

// FieldErrors maps a student id to the message of its invalid field.
type FieldErrors map[account.ID]string

// Error implements error.
func (fe FieldErrors) Error() string {
	return fmt.Sprintf("%d note(s) invalide(s)", len(fe))
}

// Collect validates the submitted text of every row of the sheet.
// Unknown students in the submission are ignored; every sheet row is sent.
// PRE: sheet holds the rows of the selected subject
// POST: Returns all entries, or FieldErrors if any row is invalid
func Collect(sheet Sheet, submitted map[account.ID]string) ([]Entry, error) {
	if len(sheet.Rows) == 0 {
		return nil, ErrNoRows
	}
	entries := make([]Entry, 0, len(sheet.Rows))
	errs := FieldErrors{}
	for _, row := range sheet.Rows {
		text, ok := submitted[row.StudentID]
		if !ok {
			text = Format(row.Grade)
		}
		g, err := Parse(text)
		if err != nil {
			errs[row.StudentID] = err.Error()
			continue
		}
		entries = append(entries, Entry{StudentID: row.StudentID, Grade: g})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return entries, nil
}
