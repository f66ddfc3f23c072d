package service

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/entity"
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*entity.User, error)
	List(ctx context.Context, limit, offset int) ([]*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	DeleteByID(ctx context.Context, id uint64) (bool, error)
}

type refreshTokenRepository interface {
	UpsertByUserID(ctx context.Context, userID uint64, token string, expiresAt time.Time) error
	FindValidByToken(ctx context.Context, token string, now time.Time) (*entity.RefreshToken, error)
	DeleteByUserID(ctx context.Context, userID uint64) error
}

type resetTokenRepository interface {
	Create(ctx context.Context, token *entity.ResetToken) error
	FindAndDeleteValidByToken(ctx context.Context, token string, now time.Time) (*entity.ResetToken, error)
}

type AsyncRunner func(task func())

func goRunner(task func()) {
	go task()
}
