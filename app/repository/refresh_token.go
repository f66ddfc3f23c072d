package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/entity"
)

type RefreshTokenRepository struct {
	db DBTX
}

func NewRefreshTokenRepository(db DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// UpsertByUserID stores token as the only refresh token of userID,
// overwriting whatever was stored before.
func (r *RefreshTokenRepository) UpsertByUserID(ctx context.Context, userID uint64, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE token = VALUES(token), expires_at = VALUES(expires_at), updated_at = VALUES(updated_at)
	`
	_, err := r.db.ExecContext(ctx, query, userID, token, expiresAt, time.Now())
	return err
}

// FindValidByToken returns the row holding token unless it expired before now.
func (r *RefreshTokenRepository) FindValidByToken(ctx context.Context, token string, now time.Time) (*entity.RefreshToken, error) {
	query := `
		SELECT user_id, token, expires_at, updated_at
		FROM refresh_tokens WHERE token = ? AND expires_at >= ?
	`
	rt := &entity.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token, now).Scan(
		&rt.UserID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *RefreshTokenRepository) DeleteByUserID(ctx context.Context, userID uint64) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
