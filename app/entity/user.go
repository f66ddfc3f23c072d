package entity

import (
	"database/sql"
	"time"
)

const (
	RoleStudent = "STUDENT"
	RoleAdmin   = "ADMIN"
)

var roles = map[string]struct{}{
	RoleStudent: {},
	RoleAdmin:   {},
}

// IsValidRole reports whether role is one of the enumerated user roles.
func IsValidRole(role string) bool {
	_, ok := roles[role]
	return ok
}

// User is the identity record. PasswordHash is NULL for accounts created
// through federated login until a password is set.
type User struct {
	ID                uint64
	Name              string
	Email             string
	Username          string
	PasswordHash      sql.NullString
	Role              string
	VerificationToken sql.NullString
	IsVerified        bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (u *User) HasPassword() bool {
	return u.PasswordHash.Valid && u.PasswordHash.String != ""
}

// RefreshToken is the single rotation record of a user, keyed by UserID.
type RefreshToken struct {
	UserID    uint64
	Token     string
	ExpiresAt time.Time
	UpdatedAt time.Time
}

type ResetToken struct {
	ID        uint64
	UserID    uint64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
