package dto

import (
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/entity"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// UserIdentity is the caller-facing view of a user. It never carries the
// password hash or the verification token.
type UserIdentity struct {
	ID         uint64
	Name       string
	Email      string
	Username   string
	Role       string
	IsVerified bool
	CreatedAt  time.Time
}

func NewUserIdentity(user *entity.User) *UserIdentity {
	return &UserIdentity{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Username:   user.Username,
		Role:       user.Role,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt,
	}
}

type RegisterResult struct {
	User *UserIdentity
}

type LoginResult struct {
	User   *UserIdentity
	Tokens *TokenPair
}

type FederatedLoginResult struct {
	User    *UserIdentity
	Tokens  *TokenPair
	Created bool
}

type MessageResult struct {
	Message string
}
