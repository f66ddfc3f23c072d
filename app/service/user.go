package service

import (
	"context"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type UserService interface {
	GetUser(ctx context.Context, id uint64) (*dto.UserIdentity, error)
	GetUserByEmail(ctx context.Context, email string) (*dto.UserIdentity, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*dto.UserIdentity, error)
	UpdateRole(ctx context.Context, id uint64, role string) (*dto.UserIdentity, error)
	DeleteUser(ctx context.Context, id uint64) error
}

type userService struct {
	userRepo    userRepository
	refreshRepo refreshTokenRepository
}

func NewUserService(userRepo userRepository, refreshRepo refreshTokenRepository) UserService {
	return &userService{
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
	}
}

func (s *userService) GetUser(ctx context.Context, id uint64) (*dto.UserIdentity, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return dto.NewUserIdentity(user), nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*dto.UserIdentity, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return dto.NewUserIdentity(user), nil
}

func (s *userService) ListUsers(ctx context.Context, limit, offset int) ([]*dto.UserIdentity, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, internal(err)
	}

	out := make([]*dto.UserIdentity, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserIdentity(u))
	}
	return out, nil
}

// UpdateRole takes effect on the next token issuance; tokens already issued
// keep the role they were signed with until they expire.
func (s *userService) UpdateRole(ctx context.Context, id uint64, role string) (*dto.UserIdentity, error) {
	if !entity.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if user.Role != role {
		user.Role = role
		if err = s.userRepo.Update(ctx, user); err != nil {
			return nil, internal(err)
		}
	}
	return dto.NewUserIdentity(user), nil
}

// DeleteUser is a hard delete. The refresh token row is removed first.
func (s *userService) DeleteUser(ctx context.Context, id uint64) error {
	if err := s.refreshRepo.DeleteByUserID(ctx, id); err != nil {
		return internal(err)
	}

	deleted, err := s.userRepo.DeleteByID(ctx, id)
	if err != nil {
		return internal(err)
	}
	if !deleted {
		return ErrUserNotFound
	}
	return nil
}
