package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FederatedIdentity is what an external provider asserts about a user after
// the provider adapter has extracted it from its own profile format.
type FederatedIdentity struct {
	Email string
	Name  string
}

type FederatedLinker struct {
	userRepo userRepository
	issuer   *TokenIssuer
}

func NewFederatedLinker(userRepo userRepository, issuer *TokenIssuer) *FederatedLinker {
	return &FederatedLinker{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

// LoginFederated finds the user by email or creates a password-less account,
// then issues tokens. Repeated calls with the same email resolve to the same
// user.
func (l *FederatedLinker) LoginFederated(ctx context.Context, identity FederatedIdentity) (*dto.FederatedLoginResult, error) {
	email := NormalizeEmail(identity.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid(ErrInvalidInput, "provider did not return an email address")
	}

	user, err := l.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, internal(err)
	}

	created := false
	if user == nil {
		user, created, err = l.createFederatedUser(ctx, email, identity.Name)
		if err != nil {
			return nil, err
		}
	}

	tokens, err := l.issuer.GenerateTokens(ctx, TokenSubject{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
	if err != nil {
		return nil, err
	}

	return &dto.FederatedLoginResult{
		User:    dto.NewUserIdentity(user),
		Tokens:  tokens,
		Created: created,
	}, nil
}

func (l *FederatedLinker) createFederatedUser(ctx context.Context, email, name string) (*entity.User, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = email
	}

	now := time.Now()
	user := &entity.User{
		Name:       name,
		Email:      email,
		Username:   email,
		Role:       entity.RoleStudent,
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := l.userRepo.Create(ctx, user)
	var dupErr *repository.DuplicateKeyError
	if errors.As(err, &dupErr) && dupErr.Field == "username" {
		// a local account already uses the email as its username
		user.Username = email + "-" + uuid.New().String()[:8]
		err = l.userRepo.Create(ctx, user)
	}
	if err == nil {
		logrus.WithField("user_id", user.ID).Info("created federated user")
		return user, true, nil
	}
	if !errors.Is(err, repository.ErrDuplicateKey) {
		return nil, false, internal(err)
	}

	// a concurrent first login won the insert
	existing, findErr := l.userRepo.FindByEmail(ctx, email)
	if findErr != nil {
		return nil, false, internal(findErr)
	}
	if existing == nil {
		return nil, false, ErrUserExists
	}
	return existing, false, nil
}
