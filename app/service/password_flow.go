package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/config"

	"github.com/sirupsen/logrus"
)

const ForgotPasswordMessage = "If this user exists, they will receive an email"

const resetTokenBytes = 32

type PasswordServiceOption func(*PasswordService)

type PasswordService struct {
	userRepo    userRepository
	resetRepo   resetTokenRepository
	refreshRepo refreshTokenRepository
	hasher      PasswordHasher
	mailer      EmailDispatcher
	policy      config.PasswordPolicy
	resetTTL    time.Duration
	asyncRunner AsyncRunner
	now         func() time.Time
}

func NewPasswordService(
	userRepo userRepository,
	resetRepo resetTokenRepository,
	refreshRepo refreshTokenRepository,
	hasher PasswordHasher,
	mailer EmailDispatcher,
	cfg *config.Config,
	opts ...PasswordServiceOption,
) *PasswordService {
	s := &PasswordService{
		userRepo:    userRepo,
		resetRepo:   resetRepo,
		refreshRepo: refreshRepo,
		hasher:      hasher,
		mailer:      mailer,
		policy:      cfg.Password.Policy,
		resetTTL:    cfg.Tokens.ResetTTL,
		asyncRunner: goRunner,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func WithPasswordAsyncRunner(runner AsyncRunner) PasswordServiceOption {
	return func(s *PasswordService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

// ForgotPassword answers with the same message whether or not the account
// exists. Only an existing account gets a reset token and an email.
func (s *PasswordService) ForgotPassword(ctx context.Context, email string) (*dto.MessageResult, error) {
	result := &dto.MessageResult{Message: ForgotPasswordMessage}

	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		return result, nil
	}

	token, err := newResetToken()
	if err != nil {
		return nil, internal(err)
	}

	now := s.now()
	if err = s.resetRepo.Create(ctx, &entity.ResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, internal(err)
	}

	recipient := user.Email
	s.asyncRunner(func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if sendErr := s.mailer.SendPasswordResetEmail(sendCtx, recipient, token); sendErr != nil {
			logrus.WithError(sendErr).WithField("user_id", user.ID).Error("failed to dispatch password reset email")
		}
	})

	return result, nil
}

// ResetPassword redeems a reset token. The token is consumed atomically, so
// a second redemption fails with ErrInvalidResetLink. A password rejected by
// the policy leaves the token usable.
func (s *PasswordService) ResetPassword(ctx context.Context, newPassword, resetToken string) error {
	if resetToken == "" {
		return ErrInvalidResetLink
	}
	if err := s.checkPolicy(newPassword); err != nil {
		return err
	}

	token, err := s.resetRepo.FindAndDeleteValidByToken(ctx, resetToken, s.now())
	if err != nil {
		return internal(err)
	}
	if token == nil {
		return ErrInvalidResetLink
	}

	user, err := s.userRepo.FindByID(ctx, token.UserID)
	if err != nil {
		return internal(err)
	}
	if user == nil {
		logrus.WithField("user_id", token.UserID).Error("reset token references a user that no longer exists")
		return ErrInternal
	}

	return s.replacePassword(ctx, user, newPassword)
}

func (s *PasswordService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return internal(err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if !user.HasPassword() || !s.hasher.Verify(oldPassword, user.PasswordHash.String) {
		return ErrWrongCredentials
	}

	return s.replacePassword(ctx, user, newPassword)
}

func (s *PasswordService) checkPolicy(password string) error {
	if err := s.policy.Validate(password); err != nil {
		return invalid(ErrWeakPassword, err.Error())
	}
	return nil
}

func (s *PasswordService) replacePassword(ctx context.Context, user *entity.User, newPassword string) error {
	if err := s.checkPolicy(newPassword); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return internal(err)
	}

	user.PasswordHash = sql.NullString{String: hashed, Valid: true}
	if err = s.userRepo.Update(ctx, user); err != nil {
		return internal(err)
	}

	if err = s.refreshRepo.DeleteByUserID(ctx, user.ID); err != nil {
		return internal(err)
	}
	return nil
}

func newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
