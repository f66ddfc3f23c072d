package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/repository"
	"github.com/vibast-solutions/ms-go-identity/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type RegisterInput struct {
	Name     string
	Email    string
	Username string
	Password string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*dto.RegisterResult, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (*dto.LoginResult, error)
	ValidateUser(ctx context.Context, email, password string) (*dto.UserIdentity, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenPair, error)
	Logout(ctx context.Context, userID uint64) error
	LoginFederated(ctx context.Context, identity FederatedIdentity) (*dto.FederatedLoginResult, error)
	ForgotPassword(ctx context.Context, email string) (*dto.MessageResult, error)
	ResetPassword(ctx context.Context, newPassword, resetToken string) error
	ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error
	VerifyAccessToken(token string) (*Claims, error)
	DecodeAccessToken(token string) (*Claims, error)
}

type AuthServiceOption func(*authService)

type authService struct {
	userRepo    userRepository
	hasher      PasswordHasher
	mailer      EmailDispatcher
	policy      config.PasswordPolicy
	issuer      *TokenIssuer
	validator   *CredentialValidator
	linker      *FederatedLinker
	passwords   *PasswordService
	asyncRunner AsyncRunner
}

func NewAuthService(
	userRepo userRepository,
	refreshRepo refreshTokenRepository,
	resetRepo resetTokenRepository,
	signer *JWTSigner,
	hasher PasswordHasher,
	mailer EmailDispatcher,
	cfg *config.Config,
	opts ...AuthServiceOption,
) AuthService {
	issuer := NewTokenIssuer(signer, userRepo, refreshRepo, cfg)
	svc := &authService{
		userRepo:    userRepo,
		hasher:      hasher,
		mailer:      mailer,
		policy:      cfg.Password.Policy,
		issuer:      issuer,
		validator:   NewCredentialValidator(userRepo, hasher),
		linker:      NewFederatedLinker(userRepo, issuer),
		asyncRunner: goRunner,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.passwords = NewPasswordService(userRepo, resetRepo, refreshRepo, hasher, mailer, cfg,
		WithPasswordAsyncRunner(svc.asyncRunner))
	return svc
}

func WithAsyncRunner(runner AsyncRunner) AuthServiceOption {
	return func(s *authService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

// Register creates a local STUDENT account. The role cannot be chosen by the
// caller and the account starts unverified.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*dto.RegisterResult, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	if name == "" || username == "" {
		return nil, invalid(ErrInvalidInput, "name and username are required")
	}
	if !strings.Contains(email, "@") {
		return nil, invalid(ErrInvalidInput, "a valid email is required")
	}
	if err := s.policy.Validate(in.Password); err != nil {
		return nil, invalid(ErrWeakPassword, err.Error())
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, internal(err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	existing, err = s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, internal(err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal(err)
	}

	verificationToken := uuid.New().String()
	now := time.Now()
	user := &entity.User{
		Name:              name,
		Email:             email,
		Username:          username,
		PasswordHash:      sql.NullString{String: hashed, Valid: true},
		Role:              entity.RoleStudent,
		VerificationToken: sql.NullString{String: verificationToken, Valid: true},
		IsVerified:        false,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		return nil, duplicateToConflict(err)
	}

	s.asyncRunner(func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if sendErr := s.mailer.SendVerificationEmail(sendCtx, user.Email, verificationToken); sendErr != nil {
			logrus.WithError(sendErr).WithField("user_id", user.ID).Error("failed to dispatch verification email")
		}
	})

	return &dto.RegisterResult{User: dto.NewUserIdentity(user)}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	user, err := s.userRepo.FindByVerificationToken(ctx, token)
	if err != nil {
		return internal(err)
	}
	if user == nil {
		return ErrInvalidToken
	}

	user.IsVerified = true
	user.VerificationToken = sql.NullString{}
	if err = s.userRepo.Update(ctx, user); err != nil {
		return internal(err)
	}
	return nil
}

// Login does not require a verified email.
func (s *authService) Login(ctx context.Context, email, password string) (*dto.LoginResult, error) {
	identity, err := s.validator.ValidateUser(ctx, email, password)
	if err != nil {
		return nil, err
	}

	tokens, err := s.issuer.GenerateTokens(ctx, TokenSubject{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		Role:  identity.Role,
	})
	if err != nil {
		return nil, err
	}

	return &dto.LoginResult{User: identity, Tokens: tokens}, nil
}

func (s *authService) ValidateUser(ctx context.Context, email, password string) (*dto.UserIdentity, error) {
	return s.validator.ValidateUser(ctx, email, password)
}

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	return s.issuer.RefreshTokens(ctx, refreshToken)
}

func (s *authService) Logout(ctx context.Context, userID uint64) error {
	return s.issuer.RevokeRefreshTokens(ctx, userID)
}

func (s *authService) LoginFederated(ctx context.Context, identity FederatedIdentity) (*dto.FederatedLoginResult, error) {
	return s.linker.LoginFederated(ctx, identity)
}

func (s *authService) ForgotPassword(ctx context.Context, email string) (*dto.MessageResult, error) {
	return s.passwords.ForgotPassword(ctx, email)
}

func (s *authService) ResetPassword(ctx context.Context, newPassword, resetToken string) error {
	return s.passwords.ResetPassword(ctx, newPassword, resetToken)
}

func (s *authService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	return s.passwords.ChangePassword(ctx, userID, oldPassword, newPassword)
}

func (s *authService) VerifyAccessToken(token string) (*Claims, error) {
	return s.issuer.VerifyAccessToken(token)
}

func (s *authService) DecodeAccessToken(token string) (*Claims, error) {
	return s.issuer.DecodeAccessToken(token)
}

func duplicateToConflict(err error) error {
	var dup *repository.DuplicateKeyError
	if !errors.As(err, &dup) {
		return internal(err)
	}
	switch dup.Field {
	case "email":
		return ErrEmailTaken
	case "username":
		return ErrUsernameTaken
	default:
		return ErrUserExists
	}
}
