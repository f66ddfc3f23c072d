package service

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
	"github.com/vibast-solutions/ms-go-identity/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type TokenSubject struct {
	ID    uint64
	Name  string
	Email string
	Role  string
}

// TokenIssuer signs access tokens and keeps the single refresh token row per
// user. Issuing always overwrites the previous refresh token of that user.
type TokenIssuer struct {
	signer      *JWTSigner
	userRepo    userRepository
	refreshRepo refreshTokenRepository
	accessTTL   time.Duration
	refreshTTL  time.Duration
	now         func() time.Time
}

func NewTokenIssuer(signer *JWTSigner, userRepo userRepository, refreshRepo refreshTokenRepository, cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{
		signer:      signer,
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		accessTTL:   cfg.JWT.AccessTokenTTL,
		refreshTTL:  cfg.JWT.RefreshTokenTTL,
		now:         signer.now,
	}
}

func (i *TokenIssuer) GenerateTokens(ctx context.Context, subject TokenSubject) (*dto.TokenPair, error) {
	accessToken, err := i.signer.Sign(Claims{
		ID:    subject.ID,
		Name:  subject.Name,
		Email: subject.Email,
		Role:  subject.Role,
	}, i.accessTTL)
	if err != nil {
		return nil, internal(err)
	}

	refreshToken := uuid.New().String()
	if err = i.refreshRepo.UpsertByUserID(ctx, subject.ID, refreshToken, i.now().Add(i.refreshTTL)); err != nil {
		return nil, internal(err)
	}

	return &dto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(i.accessTTL.Seconds()),
	}, nil
}

// RefreshTokens exchanges a stored, unexpired refresh token for a new pair.
// The presented token stops working once the new one is written.
func (i *TokenIssuer) RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	stored, err := i.refreshRepo.FindValidByToken(ctx, refreshToken, i.now())
	if err != nil {
		return nil, internal(err)
	}
	if stored == nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := i.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		logrus.WithField("user_id", stored.UserID).Warn("refresh token references missing user")
		return nil, ErrInvalidRefreshToken
	}

	return i.GenerateTokens(ctx, TokenSubject{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

func (i *TokenIssuer) VerifyAccessToken(token string) (*Claims, error) {
	return i.signer.Verify(token)
}

func (i *TokenIssuer) DecodeAccessToken(token string) (*Claims, error) {
	return i.signer.Decode(token)
}

func (i *TokenIssuer) RevokeRefreshTokens(ctx context.Context, userID uint64) error {
	if err := i.refreshRepo.DeleteByUserID(ctx, userID); err != nil {
		return internal(err)
	}
	return nil
}
