// internal/service/account_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/taskboard/internal/database"
	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/repository"
	"github.com/gurkanbulca/taskboard/pkg/auth"
)

// AccountService registers, authenticates and removes users.
type AccountService struct {
	db              *sqlx.DB
	users           *repository.UserRepository
	profiles        *repository.ProfileRepository
	tasks           *repository.TaskRepository
	tokenManager    *auth.TokenManager
	passwordManager *auth.PasswordManager
	securityLogger  *SecurityLogger
	now             func() time.Time
}

func NewAccountService(
	db *sqlx.DB,
	tokenManager *auth.TokenManager,
	passwordManager *auth.PasswordManager,
	securityLogger *SecurityLogger,
) *AccountService {
	return &AccountService{
		db:              db,
		users:           repository.NewUserRepository(db),
		profiles:        repository.NewProfileRepository(db),
		tasks:           repository.NewTaskRepository(db),
		tokenManager:    tokenManager,
		passwordManager: passwordManager,
		securityLogger:  securityLogger,
		now:             time.Now,
	}
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username        string
	Email           string
	Role            string
	Password        string
	PasswordConfirm string
}

// Register creates a user together with its profile. Both rows are written
// in one transaction.
func (s *AccountService) Register(ctx context.Context, in *RegisterInput) (*models.User, error) {
	role, err := s.validateRegister(in)
	if err != nil {
		return nil, err
	}

	hash, err := s.passwordManager.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		Role:         role,
		PasswordHash: hash,
		DateJoined:   s.now().UTC(),
	}

	err = database.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.users.WithTx(tx).Create(ctx, u); err != nil {
			return err
		}
		return s.profiles.WithTx(tx).Create(ctx, &models.Profile{
			ID:     uuid.New(),
			UserID: u.ID,
			Image:  models.DefaultProfileImage,
		})
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("username %q is taken: %w", in.Username, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.securityLogger.LogUserRegistered(ctx, u.ID)
	return u, nil
}

func (s *AccountService) validateRegister(in *RegisterInput) (models.Role, error) {
	if err := auth.ValidateUsername(in.Username); err != nil {
		return "", invalid("username", "%v", err)
	}
	if err := auth.ValidateEmail(in.Email); err != nil {
		return "", invalid("email", "%v", err)
	}
	role, ok := models.ParseRole(in.Role)
	if !ok {
		return "", invalid("role", "role must be creator or completer")
	}
	if err := s.passwordManager.ValidatePassword(in.Password); err != nil {
		return "", invalid("password", "%v", err)
	}
	if err := auth.ValidatePasswordConfirmation(in.Password, in.PasswordConfirm); err != nil {
		return "", invalid("password_confirm", "%v", err)
	}
	return role, nil
}

// Login checks credentials and issues a token pair.
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.User, *auth.TokenPair, error) {
	if username == "" || password == "" {
		return nil, nil, invalid("", "username and password are required")
	}

	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		s.securityLogger.LogLoginFailed(ctx, username, "user not found")
		return nil, nil, fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	}
	if err != nil {
		return nil, nil, err
	}

	if u.IsTombstone() {
		s.securityLogger.LogSuspiciousActivity(ctx, u.ID, "Login attempted as the deleted user placeholder")
		return nil, nil, fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	}

	if err := s.passwordManager.ComparePassword(u.PasswordHash, password); err != nil {
		s.securityLogger.LogLoginFailed(ctx, username, "invalid password")
		return nil, nil, fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	}

	pair, err := s.tokenManager.GenerateTokenPair(u.ID.String(), u.Username, string(u.Role))
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.securityLogger.LogLoginSuccess(ctx, u.ID)
	return u, pair, nil
}

// Refresh exchanges a refresh token of an existing user for a new access
// token.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := s.tokenManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", 0, fmt.Errorf("%v: %w", err, ErrUnauthenticated)
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return "", 0, fmt.Errorf("%v: %w", err, ErrUnauthenticated)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", 0, fmt.Errorf("user %s no longer exists: %w", userID, ErrUnauthenticated)
		}
		return "", 0, err
	}

	token, expiresIn, err := s.tokenManager.RefreshAccessToken(refreshToken)
	if err != nil {
		return "", 0, fmt.Errorf("%v: %w", err, ErrUnauthenticated)
	}

	s.securityLogger.LogTokenRefreshed(ctx, userID)
	return token, expiresIn, nil
}

// GetAccount returns a user with its profile.
func (s *AccountService) GetAccount(ctx context.Context, userID uuid.UUID) (*models.User, *models.Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, notFound(err, "user")
	}
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, notFound(err, "profile")
	}
	return u, p, nil
}

// UpdateAccountInput lists the editable account fields; nil means unchanged.
type UpdateAccountInput struct {
	Username *string
	Email    *string
	Role     *string
}

func (s *AccountService) UpdateAccount(ctx context.Context, userID uuid.UUID, in *UpdateAccountInput) (*models.User, error) {
	if userID == models.TombstoneUserID {
		return nil, fmt.Errorf("the deleted user cannot be edited: %w", ErrForbidden)
	}

	update := &repository.UserUpdateInput{Username: in.Username}
	if in.Username != nil {
		if err := auth.ValidateUsername(*in.Username); err != nil {
			return nil, invalid("username", "%v", err)
		}
	}
	if in.Email != nil {
		if err := auth.ValidateEmail(*in.Email); err != nil {
			return nil, invalid("email", "%v", err)
		}
		email := strings.ToLower(*in.Email)
		update.Email = &email
	}
	if in.Role != nil {
		role, ok := models.ParseRole(*in.Role)
		if !ok {
			return nil, invalid("role", "role must be creator or completer")
		}
		if role != models.RoleCompleter {
			if err := s.checkNoOpenClaims(ctx, userID); err != nil {
				return nil, err
			}
		}
		update.Role = &role
	}

	u, err := s.users.Update(ctx, userID, update)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("username %q is taken: %w", *in.Username, ErrConflict)
	}
	if err != nil {
		return nil, notFound(err, "user")
	}

	s.securityLogger.LogAccountUpdated(ctx, userID)
	return u, nil
}

// checkNoOpenClaims rejects leaving the completer role while open tasks are
// still claimed by the user; no one else could complete them.
func (s *AccountService) checkNoOpenClaims(ctx context.Context, userID uuid.UUID) error {
	open := models.TaskStatusOpen
	claimed, err := s.tasks.Count(ctx, repository.ListFilter{Status: &open, CompleterID: &userID})
	if err != nil {
		return err
	}
	if claimed > 0 {
		return invalid("role", "%d open tasks are still claimed by this account", claimed)
	}
	return nil
}

// DeleteUser removes an account. The user's tasks, both authored and
// completed, are handed to the tombstone user in the same transaction.
func (s *AccountService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if userID == models.TombstoneUserID {
		return fmt.Errorf("the deleted user cannot be removed: %w", ErrForbidden)
	}

	err := database.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.tasks.WithTx(tx).ReassignUser(ctx, userID, models.TombstoneUserID); err != nil {
			return err
		}
		if err := s.profiles.WithTx(tx).DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		return s.users.WithTx(tx).Delete(ctx, userID)
	})
	if err != nil {
		return notFound(err, "user")
	}

	s.securityLogger.LogAccountDeleted(ctx, userID)
	return nil
}
