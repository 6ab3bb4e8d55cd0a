package projections

import (
	"context"

	"edtpro/internal/application/validation"
	"edtpro/internal/domain/account"
)

// ProfileFormAPI defines the API calls needed by the profile form projection.
type ProfileFormAPI interface {
	GetUser(ctx context.Context, token string, id account.ID) (account.Profile, error)
	ListLevels(ctx context.Context, token string) ([]account.Level, error)
	ListSubjects(ctx context.Context, token string) ([]account.Subject, error)
}

// GetProfileFormQuery carries input for the profile form projection.
type GetProfileFormQuery struct {
	Token string
	User  account.Profile
}

// GetProfileFormDeps holds dependencies for the profile form projection.
type GetProfileFormDeps struct {
	API ProfileFormAPI
}

// ProfileFormResult carries the output of the profile form projection.
type ProfileFormResult struct {
	User     account.Profile
	Form     validation.ProfileForm
	Levels   []account.Level
	Subjects []account.Subject
	Selected map[account.ID]bool
}

// GetProfileForm loads the full profile and the option lists of its role fields.
// POST: Levels are loaded only for students, subjects only for teachers
func GetProfileForm(ctx context.Context, query GetProfileFormQuery, deps GetProfileFormDeps) (ProfileFormResult, error) {
	user, err := deps.API.GetUser(ctx, query.Token, query.User.ID)
	if err != nil {
		return ProfileFormResult{}, err
	}
	// The stored role is authoritative for this session.
	user.Role = query.User.Role

	res := ProfileFormResult{User: user, Form: FormFromProfile(user), Selected: map[account.ID]bool{}}
	switch user.Role {
	case account.RoleStudent:
		if res.Levels, err = deps.API.ListLevels(ctx, query.Token); err != nil {
			return ProfileFormResult{}, err
		}
	case account.RoleTeacher:
		if res.Subjects, err = deps.API.ListSubjects(ctx, query.Token); err != nil {
			return ProfileFormResult{}, err
		}
		for _, id := range res.Form.SubjectIDs {
			res.Selected[account.ID(id)] = true
		}
	}
	return res, nil
}

// FormFromProfile pre-fills the profile form. Password fields stay empty.
func FormFromProfile(p account.Profile) validation.ProfileForm {
	f := validation.ProfileForm{Name: p.Name, Email: p.Email}
	if s := p.Student; s != nil {
		if s.RegistrationNumber != nil {
			f.RegistrationNumber = *s.RegistrationNumber
		}
		if s.Level != nil {
			f.LevelID = s.Level.ID.String()
		}
	}
	if t := p.Teacher; t != nil {
		if t.Position != nil {
			f.Position = *t.Position
		}
		for _, ts := range t.Subjects {
			f.SubjectIDs = append(f.SubjectIDs, ts.SubjectID.String())
		}
	}
	return f
}
