package repository

import (
	"context"
	"strings"

	"github.com/tle-lab/reservations/internal/model"
)

// CreateUser inserts a user and returns its id.  The unique index on
// username makes concurrent signups safe; a violation is reported as
// ErrDuplicateUsername.
func (s *SQLStore) CreateUser(ctx context.Context, username, passwordHash string, role model.Role) (uint64, error) {
	u := model.User{Username: strings.TrimSpace(username), PasswordHash: passwordHash, Role: role}
	if err := s.conn(ctx).Create(&u).Error; err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicateUsername
		}
		return 0, persistErr("create user", err)
	}
	return u.ID, nil
}

// FindUserByUsername fetches a user by exact username.
func (s *SQLStore) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.conn(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if err != nil {
		return nil, persistErr("find user", notFound(err))
	}
	u.Role = model.ParseRole(string(u.Role))
	return &u, nil
}

// FindUserByID fetches a user by id.
func (s *SQLStore) FindUserByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	if err := s.conn(ctx).First(&u, id).Error; err != nil {
		return nil, persistErr("find user", notFound(err))
	}
	u.Role = model.ParseRole(string(u.Role))
	return &u, nil
}

// ListUsers returns every account ordered by id.
func (s *SQLStore) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := s.conn(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, persistErr("list users", err)
	}
	for i := range users {
		users[i].Role = model.ParseRole(string(users[i].Role))
	}
	return users, nil
}

// UpdateUserPassword replaces the stored hash.
func (s *SQLStore) UpdateUserPassword(ctx context.Context, id uint64, passwordHash string) error {
	res := s.conn(ctx).Model(&model.User{}).Where("id = ?", id).Update("password", passwordHash)
	if res.Error != nil {
		return persistErr("update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
