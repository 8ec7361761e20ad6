package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskkeeper/internal/domain"
	"github.com/phrazzld/taskkeeper/internal/platform/logger"
	"github.com/phrazzld/taskkeeper/internal/service/auth"
	"github.com/phrazzld/taskkeeper/internal/store"
)

// UserUpdate carries the fields a caller wants to change. Nil fields are
// left untouched.
type UserUpdate struct {
	Username *string
	Password *string
	Role     *domain.Role
}

// UserService manages accounts. Regular callers only ever see their own
// record; administrators see all of them.
type UserService interface {
	// ListUsers returns the users visible to caller, ordered by username.
	ListUsers(ctx context.Context, caller domain.Principal) ([]*domain.User, error)

	// GetUser returns the user with id, or store.ErrUserNotFound when it is
	// outside the caller's visible set.
	GetUser(ctx context.Context, caller domain.Principal, id uuid.UUID) (*domain.User, error)

	// Register creates a regular user. It needs no caller.
	Register(ctx context.Context, username, password string) (*domain.User, error)

	// UpdateUser applies upd to the user with id. Role changes are ignored
	// unless caller is an administrator.
	UpdateUser(ctx context.Context, caller domain.Principal, id uuid.UUID, upd UserUpdate) (*domain.User, error)

	// DeleteUser removes the user with id and returns the deleted record.
	DeleteUser(ctx context.Context, caller domain.Principal, id uuid.UUID) (*domain.User, error)

	// Authenticate checks a username/password pair. Any mismatch yields
	// auth.ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)

	// Promote grants the administrator role to username. It is meant for
	// operator tooling and performs no caller check.
	Promote(ctx context.Context, username string) (*domain.User, error)
}

type userServiceImpl struct {
	users    store.UserStore
	verifier auth.PasswordVerifier
	logger   *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(
	users store.UserStore,
	verifier auth.PasswordVerifier,
	logger *slog.Logger,
) (UserService, error) {
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if verifier == nil {
		return nil, domain.NewValidationError("verifier", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &userServiceImpl{
		users:    users,
		verifier: verifier,
		logger:   logger.With(slog.String("component", "user_service")),
	}, nil
}

// ListUsers implements UserService.ListUsers
func (s *userServiceImpl) ListUsers(ctx context.Context, caller domain.Principal) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}

	if !caller.IsAdmin() {
		self, err := s.users.GetByID(ctx, caller.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				// Token outlived its account.
				return []*domain.User{}, nil
			}
			log.Error("failed to load caller", slog.String("error", err.Error()))
			return nil, newUserServiceError("list", "failed to load caller", err)
		}
		return []*domain.User{self}, nil
	}

	users, err := s.users.List(ctx)
	if err != nil {
		log.Error("failed to list users", slog.String("error", err.Error()))
		return nil, newUserServiceError("list", "failed to list users", err)
	}
	return users, nil
}

// GetUser implements UserService.GetUser
func (s *userServiceImpl) GetUser(ctx context.Context, caller domain.Principal, id uuid.UUID) (*domain.User, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	return s.visibleUser(ctx, caller, id, "get")
}

// visibleUser loads id if it is in the caller's visible set.
func (s *userServiceImpl) visibleUser(
	ctx context.Context,
	caller domain.Principal,
	id uuid.UUID,
	op string,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !caller.IsAdmin() && id != caller.UserID {
		log.Debug("user outside visible set",
			slog.String("caller_id", caller.UserID.String()),
			slog.String("user_id", id.String()))
		return nil, store.ErrUserNotFound
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
		log.Error("failed to load user",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, newUserServiceError(op, "failed to load user", err)
	}
	return user, nil
}

// Register implements UserService.Register
func (s *userServiceImpl) Register(ctx context.Context, username, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(username, password)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) || errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		log.Error("failed to create user", slog.String("error", err.Error()))
		return nil, newUserServiceError("register", "failed to create user", err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// UpdateUser implements UserService.UpdateUser
func (s *userServiceImpl) UpdateUser(
	ctx context.Context,
	caller domain.Principal,
	id uuid.UUID,
	upd UserUpdate,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.visibleUser(ctx, caller, id, "update")
	if err != nil {
		return nil, err
	}
	if !domain.CanAccessUser(caller, user) {
		return nil, ErrNotOwned
	}

	if upd.Username != nil {
		if err := domain.ValidateUsername(*upd.Username); err != nil {
			return nil, err
		}
		user.Username = *upd.Username
	}
	if upd.Password != nil {
		if err := domain.ValidatePassword(*upd.Password); err != nil {
			return nil, err
		}
		user.Password = *upd.Password
	}
	if upd.Role != nil {
		switch {
		case !caller.IsAdmin():
			log.Debug("ignoring role change from non-admin",
				slog.String("user_id", id.String()))
		case !upd.Role.Valid():
			return nil, domain.ErrInvalidRole
		default:
			user.Role = *upd.Role
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) ||
			errors.Is(err, store.ErrUserNotFound) ||
			errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		log.Error("failed to update user",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, newUserServiceError("update", "failed to update user", err)
	}

	log.Info("user updated", slog.String("user_id", id.String()))
	return user, nil
}

// DeleteUser implements UserService.DeleteUser
func (s *userServiceImpl) DeleteUser(ctx context.Context, caller domain.Principal, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.visibleUser(ctx, caller, id, "delete")
	if err != nil {
		return nil, err
	}
	if !domain.CanAccessUser(caller, user) {
		return nil, ErrNotOwned
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
		log.Error("failed to delete user",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, newUserServiceError("delete", "failed to delete user", err)
	}

	log.Info("user deleted", slog.String("user_id", id.String()))
	return user, nil
}

// Authenticate implements UserService.Authenticate
func (s *userServiceImpl) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		log.Error("failed to load user for login", slog.String("error", err.Error()))
		return nil, newUserServiceError("authenticate", "failed to load user", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("password mismatch", slog.String("user_id", user.ID.String()))
		return nil, auth.ErrInvalidCredentials
	}
	return user, nil
}

// Promote implements UserService.Promote
func (s *userServiceImpl) Promote(ctx context.Context, username string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
		return nil, newUserServiceError("promote", "failed to load user", err)
	}
	if user.IsAdmin() {
		return user, nil
	}

	user.Role = domain.RoleAdmin
	if err := s.users.Update(ctx, user); err != nil {
		return nil, newUserServiceError("promote", "failed to update user", err)
	}

	log.Info("user promoted to admin", slog.String("user_id", user.ID.String()))
	return user, nil
}
