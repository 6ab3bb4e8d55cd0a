// Package validation checks form input before any API call and renders French field messages.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"
)

// MinPasswordLength applies to login and password change.
const MinPasswordLength = 6

// Field messages keyed by validation tag. {0} is the field, {1} the tag parameter.
var messages = map[string]string{
	"required":      "Ce champ est obligatoire",
	"required_with": "Ce champ est obligatoire",
	"email":         "Adresse email invalide",
	"min":           "Au moins {1} caractères",
	"max":           "Au plus {1} caractères",
	"eqfield":       "Les mots de passe ne correspondent pas",
	"nefield":       "Le nouveau mot de passe doit être différent de l'actuel",
}

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

// Error implements error.
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for k, v := range fe {
		parts = append(parts, k+": "+v)
	}
	return strings.Join(parts, "; ")
}

// Validator wraps go-playground/validator with translated messages.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a validator that reports errors under the `form` tag names.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_fr := fr.New()
	uni := ut.New(_fr, _fr)
	translator, _ := uni.GetTranslator("fr")
	_ = fr_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v := &Validator{validate: validate, translator: translator}
	for tag, text := range messages {
		v.registerTranslation(tag, text)
	}
	validate.RegisterStructValidation(passwordPairValidation, ProfileForm{})
	return v
}

func (v *Validator) registerTranslation(tag, text string) {
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field(), fe.Param())
			return s
		},
	)
}

// Struct validates a form struct.
// POST: Returns nil when valid, otherwise FieldErrors with one message per field
func (v *Validator) Struct(form any) error {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = fe.Translate(v.translator)
		}
	}
	return out
}
