package service

import (
	"context"
	"sync"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
)

// CredentialValidator checks an email/password pair. Every failure mode
// returns ErrInvalidCredentials so callers cannot tell which one occurred.
type CredentialValidator struct {
	userRepo userRepository
	hasher   PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialValidator(userRepo userRepository, hasher PasswordHasher) *CredentialValidator {
	return &CredentialValidator{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

func (v *CredentialValidator) ValidateUser(ctx context.Context, email, password string) (*dto.UserIdentity, error) {
	user, err := v.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, internal(err)
	}
	if user == nil || !user.HasPassword() {
		// burn a comparison so a missing account costs the same as a bad password
		v.hasher.Verify(password, v.timingHash())
		return nil, ErrInvalidCredentials
	}

	if !v.hasher.Verify(password, user.PasswordHash.String) {
		return nil, ErrInvalidCredentials
	}

	return dto.NewUserIdentity(user), nil
}

func (v *CredentialValidator) timingHash() string {
	v.dummyOnce.Do(func() {
		v.dummyHash, _ = v.hasher.Hash("identity-timing-equalizer")
	})
	return v.dummyHash
}
