// Package account handles signup, login and password resets.
package account

import (
	"context"
	"errors"
	"strings"

	"github.com/tle-lab/reservations/internal/authz"
	"github.com/tle-lab/reservations/internal/model"
	"github.com/tle-lab/reservations/internal/repository"
	"github.com/tle-lab/reservations/internal/utils"
)

// ErrInvalidCredentials is returned by Login for an unknown username or a
// wrong password; the two cases are not told apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// MinPasswordLen applies to signup and every reset.
const MinPasswordLen = 4

// Service manages user accounts.
type Service struct {
	repo       repository.Repository
	bcryptCost int
}

// NewService returns a Service hashing passwords with the given bcrypt cost.
func NewService(repo repository.Repository, bcryptCost int) *Service {
	return &Service{repo: repo, bcryptCost: bcryptCost}
}

// Signup creates an ordinary user.  Usernames are trimmed and compared
// exactly; a taken name yields ErrDuplicateUsername and leaves the
// existing account alone.
func (s *Service) Signup(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, model.Invalid("username", "is required")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.CreateUser(ctx, username, hash, model.RoleUser)
	if err != nil {
		return nil, err
	}
	return &model.User{ID: id, Username: username, Role: model.RoleUser}, nil
}

// Login checks a username and password.
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.repo.FindUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Me returns the account behind p.
func (s *Service) Me(ctx context.Context, p authz.Principal) (*model.User, error) {
	if !p.Authenticated() {
		return nil, repository.ErrForbidden
	}
	return s.repo.FindUserByID(ctx, p.UserID)
}

// ResetPassword sets a new password for userID.  Users may reset their
// own password; admins may reset anyone's.
func (s *Service) ResetPassword(ctx context.Context, p authz.Principal, userID uint64, password string) error {
	if !p.Authenticated() || (p.UserID != userID && !authz.CanAdminister(p)) {
		return repository.ErrForbidden
	}
	if err := checkPassword(password); err != nil {
		return err
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.repo.UpdateUserPassword(ctx, userID, hash)
}

// ResetPasswordByName is the shell variant used by cmd/migrate; it needs
// no principal.
func (s *Service) ResetPasswordByName(ctx context.Context, username, password string) error {
	u, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := checkPassword(password); err != nil {
		return err
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.repo.UpdateUserPassword(ctx, u.ID, hash)
}

// ListUsers returns every account.  Admin only.
func (s *Service) ListUsers(ctx context.Context, p authz.Principal) ([]model.User, error) {
	if !authz.CanAdminister(p) {
		return nil, repository.ErrForbidden
	}
	return s.repo.ListUsers(ctx)
}

func checkPassword(pw string) error {
	if len(pw) < MinPasswordLen {
		return model.Invalid("password", "must be at least 4 characters")
	}
	return nil
}
