package repository_test

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	insertUserQuery            = `(?s)INSERT INTO users \(name, email, username, password_hash, role, verification_token, is_verified, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?, \?, \?\)`
	updateUserQuery            = `(?s)UPDATE users SET\s+name = \?,\s+email = \?,\s+username = \?,\s+password_hash = \?,\s+role = \?,\s+verification_token = \?,\s+is_verified = \?,\s+updated_at = \?\s+WHERE id = \?`
	findUserByEmailQuery       = `(?s)SELECT id, name, email, username, password_hash, role, verification_token, is_verified, created_at, updated_at FROM users WHERE email = \?`
	findUserByIDQuery          = `(?s)SELECT id, name, email, username, password_hash, role, verification_token, is_verified, created_at, updated_at FROM users WHERE id = \?`
	listUsersQuery             = `(?s)SELECT id, name, email, username, password_hash, role, verification_token, is_verified, created_at, updated_at FROM users ORDER BY id LIMIT \? OFFSET \?`
	deleteUserQuery            = `(?s)DELETE FROM users WHERE id = \?`
	upsertRefreshTokenQuery    = `(?s)INSERT INTO refresh_tokens \(user_id, token, expires_at, updated_at\)\s+VALUES \(\?, \?, \?, \?\)\s+ON DUPLICATE KEY UPDATE token = VALUES\(token\), expires_at = VALUES\(expires_at\), updated_at = VALUES\(updated_at\)`
	findValidRefreshTokenQuery = `(?s)SELECT user_id, token, expires_at, updated_at\s+FROM refresh_tokens WHERE token = \? AND expires_at >= \?`
	deleteRefreshByUserQuery   = `(?s)DELETE FROM refresh_tokens WHERE user_id = \?`
	insertResetTokenQuery      = `(?s)INSERT INTO reset_tokens \(user_id, token, expires_at, created_at\)\s+VALUES \(\?, \?, \?, \?\)`
	findResetForUpdateQuery    = `(?s)SELECT id, user_id, token, expires_at, created_at\s+FROM reset_tokens WHERE token = \? AND expires_at >= \? FOR UPDATE`
	deleteResetByIDQuery       = `(?s)DELETE FROM reset_tokens WHERE id = \?`
)

var userColumns = []string{
	"id",
	"name",
	"email",
	"username",
	"password_hash",
	"role",
	"verification_token",
	"is_verified",
	"created_at",
	"updated_at",
}

var refreshTokenColumns = []string{
	"user_id",
	"token",
	"expires_at",
	"updated_at",
}

var resetTokenColumns = []string{
	"id",
	"user_id",
	"token",
	"expires_at",
	"created_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}
