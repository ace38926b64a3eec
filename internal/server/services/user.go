package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"unicode/utf8"

	"github.com/dmitrijs2005/authkit/internal/common"
	"github.com/dmitrijs2005/authkit/internal/dbx"
	"github.com/dmitrijs2005/authkit/internal/logging"
	"github.com/dmitrijs2005/authkit/internal/server/auth"
	"github.com/dmitrijs2005/authkit/internal/server/models"
	"github.com/dmitrijs2005/authkit/internal/server/repositories/repomanager"
	"github.com/samber/oops"
)

const (
	MinPasswordLength    = 4
	MaxProfileNameLength = 30
	DefaultListLimit     = 100
	MaxListLimit         = 100
)

// RegisterInput is the payload of a sign-up.
type RegisterInput struct {
	Email       string
	Password    string
	ProfileName string
}

// UpdateInput carries the optional fields of a profile update.
type UpdateInput struct {
	ProfileName *string
	Role        *models.Role
}

// UserService manages user records: registration, lookup, listing,
// profile updates and soft deletion.
type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      auth.Hasher
	logger      logging.Logger
}

func NewUserService(m repomanager.RepositoryManager, hasher auth.Hasher, logger logging.Logger) *UserService {
	return &UserService{repomanager: m, hasher: hasher, logger: logger.With("module", "user_service")}
}

// Register creates a COMMON, active user together with its empty session
// record in one unit of work.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.UserView, error) {
	email := NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	if err := validateProfileName(in.ProfileName); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("USER_PASSWORD_HASH_FAILED").Wrap(err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: digest,
		ProfileName:  in.ProfileName,
		Role:         models.RoleCommon,
		IsActive:     true,
	}

	err = s.repomanager.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		user = created
		_, err = s.repomanager.Sessions(tx).Create(ctx, created.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrEmailAlreadyExists
		}
		return nil, oops.Code("USER_REGISTER_FAILED").With("operation", "create user").Wrap(err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)

	v := user.View()
	return &v, nil
}

// Get returns the public view of user id.
func (s *UserService) Get(ctx context.Context, id int64) (*models.UserView, error) {
	user, err := s.getUser(ctx, s.repomanager.DB(), id)
	if err != nil {
		return nil, err
	}
	v := user.View()
	return &v, nil
}

// List pages through users newest first. A zero limit means DefaultListLimit.
func (s *UserService) List(ctx context.Context, skip, limit int) ([]models.UserView, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}
	if skip < 0 {
		return nil, fmt.Errorf("%w: skip must not be negative", common.ErrorValidation)
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", common.ErrorValidation, MaxListLimit)
	}

	list, err := s.repomanager.Users(s.repomanager.DB()).List(ctx, skip, limit)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").Wrap(err)
	}

	views := make([]models.UserView, 0, len(list))
	for _, u := range list {
		views = append(views, u.View())
	}
	return views, nil
}

// Update changes the profile name and, for ADMIN callers, the role. Callers
// other than ADMIN may only update themselves.
func (s *UserService) Update(ctx context.Context, caller *models.User, id int64, in UpdateInput) (*models.UserView, error) {
	if err := authorize(caller, id); err != nil {
		return nil, err
	}
	if in.Role != nil {
		if caller.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%w: only administrators may change roles", common.ErrorForbidden)
		}
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", common.ErrorValidation, *in.Role)
		}
	}
	if in.ProfileName != nil {
		if err := validateProfileName(*in.ProfileName); err != nil {
			return nil, err
		}
	}

	db := s.repomanager.DB()

	user, err := s.getUser(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if in.ProfileName != nil {
		user.ProfileName = *in.ProfileName
	}
	if in.Role != nil {
		user.Role = *in.Role
	}

	updated, err := s.repomanager.Users(db).Update(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, oops.Code("USER_UPDATE_FAILED").With("user_id", id).Wrap(err)
	}

	v := updated.View()
	return &v, nil
}

// Delete soft-deletes user id and clears its session token.
func (s *UserService) Delete(ctx context.Context, caller *models.User, id int64) error {
	if err := authorize(caller, id); err != nil {
		return err
	}

	err := s.repomanager.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SoftDelete(ctx, id); err != nil {
			return err
		}
		if err := s.repomanager.Sessions(tx).ClearToken(ctx, id); err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrUserNotFound
		}
		return oops.Code("USER_DELETE_FAILED").With("user_id", id).Wrap(err)
	}

	s.logger.Info(ctx, "user deleted", "user_id", id, "by", caller.ID)
	return nil
}

func (s *UserService) getUser(ctx context.Context, db dbx.DBTX, id int64) (*models.User, error) {
	user, err := s.repomanager.Users(db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, oops.Code("USER_GET_FAILED").With("user_id", id).Wrap(err)
	}
	return user, nil
}

func authorize(caller *models.User, id int64) error {
	if caller == nil {
		return common.ErrInvalidAccessToken
	}
	if caller.ID != id && caller.Role != models.RoleAdmin {
		return fmt.Errorf("%w: cannot modify another user", common.ErrorForbidden)
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email address", common.ErrorValidation)
	}
	return nil
}

func validateProfileName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 1 || n > MaxProfileNameLength {
		return fmt.Errorf("%w: profile name must be 1 to %d characters", common.ErrorValidation, MaxProfileNameLength)
	}
	return nil
}
