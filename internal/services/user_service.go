// Package services – UserService
//
// Administrative operations over user accounts: listing with pagination and
// role filtering, profile lookup, and role/status changes. Role assignment
// is restricted at the HTTP layer (role:assign permission); this service
// only validates that the target role is one of the closed set.
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/prepnest/go-exam-backend/internal/domain"
)

// UserRepo defines the repository contract required by UserService.
type UserRepo interface {
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
	CountUsers(ctx context.Context, db *gorm.DB, role domain.Role) (int64, error)
	ListUsersPage(ctx context.Context, db *gorm.DB, role domain.Role, orderBy string, offset, limit int) ([]domain.User, error)
	UpdateUserStatus(ctx context.Context, db *gorm.DB, id string, status domain.UserStatus) error
	UpdateUserRole(ctx context.Context, db *gorm.DB, id string, role domain.Role) error
}

// UserService provides account lookup and administration.
type UserService struct {
	DB   *gorm.DB
	Repo UserRepo
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, r UserRepo) *UserService {
	return &UserService{DB: db, Repo: r}
}

// Get returns a user's profile. Missing accounts map to ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ListPage returns a page of users (optionally filtered by role) plus the
// total count for pagination metadata.
func (s *UserService) ListPage(ctx context.Context, role domain.Role, orderBy string, page, pageSize int) ([]domain.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountUsers(ctx, s.DB, role)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.User{}, 0, nil
	}

	items, err := s.Repo.ListUsersPage(ctx, s.DB, role, orderBy, offset, pageSize)
	return items, total, err
}

// SetStatus transitions a user's lifecycle status (activate / suspend).
func (s *UserService) SetStatus(ctx context.Context, id string, status domain.UserStatus) error {
	err := s.Repo.UpdateUserStatus(ctx, s.DB, id, status)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

// SetRole assigns a new role to a user. Unknown roles are rejected before
// touching the datastore.
func (s *UserService) SetRole(ctx context.Context, id string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	err := s.Repo.UpdateUserRole(ctx, s.DB, id, role)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
