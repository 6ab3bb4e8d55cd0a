package validation

import (
	"github.com/go-playground/validator/v10"
)

// LoginForm is the login screen input.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,min=6,max=128"`
}

// ResetForm is the password-reset request input.
type ResetForm struct {
	Email string `form:"email" validate:"required,email,max=254"`
}

// ProfileForm is the profile edit input. Role fields are ignored for roles they do not belong to.
type ProfileForm struct {
	Name               string   `form:"nom" validate:"required,max=100"`
	Email              string   `form:"email" validate:"required,email,max=254"`
	CurrentPassword    string   `form:"currentPassword" validate:"max=128"`
	NewPassword        string   `form:"newPassword" validate:"omitempty,min=6,max=128"`
	ConfirmPassword    string   `form:"confirmPassword"`
	RegistrationNumber string   `form:"matricule" validate:"max=50"`
	LevelID            string   `form:"niveauId" validate:"max=64"`
	Position           string   `form:"poste" validate:"max=100"`
	SubjectIDs         []string `form:"matiereIds" validate:"dive,required,max=64"`
}

// ChangesPassword reports whether the form carries a password change.
func (f ProfileForm) ChangesPassword() bool {
	return f.CurrentPassword != "" || f.NewPassword != ""
}

// passwordPairValidation requires currentPassword and newPassword together,
// a matching confirmation, and a new password different from the current one.
func passwordPairValidation(sl validator.StructLevel) {
	f := sl.Current().Interface().(ProfileForm)
	if !f.ChangesPassword() {
		return
	}
	if f.CurrentPassword == "" {
		sl.ReportError(f.CurrentPassword, "currentPassword", "CurrentPassword", "required_with", "")
	}
	if f.NewPassword == "" {
		sl.ReportError(f.NewPassword, "newPassword", "NewPassword", "required_with", "")
		return
	}
	if f.ConfirmPassword != f.NewPassword {
		sl.ReportError(f.ConfirmPassword, "confirmPassword", "ConfirmPassword", "eqfield", "newPassword")
	}
	if f.CurrentPassword != "" && f.CurrentPassword == f.NewPassword {
		sl.ReportError(f.NewPassword, "newPassword", "NewPassword", "nefield", "currentPassword")
	}
}
