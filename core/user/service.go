package user

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidProfile     = errors.New("profile does not match its role")
	ErrNotParent          = errors.New("only parents have wards")
	ErrWardNotFound       = errors.New("ward not found")
)

type (
	Repository interface {
		GetAccount(ctx context.Context, username string) (Account, error)
		GetProfile(ctx context.Context, username string) (Profile, error)
		UpdateProfile(ctx context.Context, username string, profile Profile) (Profile, error)
	}

	Service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(repo Repository, validate *validator.Validate, translator ut.Translator) *Service {
	return &Service{repo: repo, validate: validate, translator: translator}
}

// Authenticate checks the credentials of a demo account.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, username, password string) (Account, error) {
	acc, err := svc.repo.GetAccount(ctx, core.CleanString(username, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, errors.Wrap(err, "getting account")
	}
	if err := acc.CheckPassword(password); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

func (svc *Service) GetAccount(ctx context.Context, username string) (Account, error) {
	return svc.repo.GetAccount(ctx, username)
}

func (svc *Service) Profile(ctx context.Context, username string) (Profile, error) {
	return svc.repo.GetProfile(ctx, username)
}

// UpdateProfile validates data and applies it to the profile of username.
// Role-specific fields only reach the matching variant; identifiers (employee id, class, roll number) are read-only.
func (svc *Service) UpdateProfile(ctx context.Context, username string, data UpdateProfile) (Profile, error) {
	data.clean()
	if err := svc.validate.Struct(data); err != nil {
		return Profile{}, core.TranslateValidationErrors(err, svc.translator)
	}

	prof, err := svc.repo.GetProfile(ctx, username)
	if err != nil {
		return Profile{}, errors.Wrap(err, "getting profile")
	}
	if err := prof.Check(); err != nil {
		return Profile{}, errors.Wrapf(err, "profile of %q", username)
	}
	return svc.repo.UpdateProfile(ctx, username, data.apply(prof))
}

// Wards lists the students linked to a parent account.
func (svc *Service) Wards(ctx context.Context, username string) ([]Ward, error) {
	prof, err := svc.repo.GetProfile(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "getting profile")
	}
	if prof.Role != RoleParent || prof.Parent == nil {
		return nil, ErrNotParent
	}
	wards := make([]Ward, len(prof.Parent.Wards))
	copy(wards, prof.Parent.Wards)
	return wards, nil
}

func (svc *Service) Ward(ctx context.Context, username, wardID string) (Ward, error) {
	wards, err := svc.Wards(ctx, username)
	if err != nil {
		return Ward{}, err
	}
	wardID = core.CleanString(wardID)
	for _, w := range wards {
		if w.ID == wardID {
			return w, nil
		}
	}
	return Ward{}, ErrWardNotFound
}
