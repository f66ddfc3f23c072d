package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/entity"
)

type ResetTokenRepository struct {
	db TxBeginner
}

func NewResetTokenRepository(db TxBeginner) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, token *entity.ResetToken) error {
	query := `
		INSERT INTO reset_tokens (user_id, token, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		token.UserID,
		token.Token,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	token.ID = uint64(id)
	return nil
}

// FindAndDeleteValidByToken consumes an unexpired reset token. The row is
// locked before it is deleted, so concurrent callers presenting the same
// token get it at most once; the losers see nil.
func (r *ResetTokenRepository) FindAndDeleteValidByToken(ctx context.Context, token string, now time.Time) (*entity.ResetToken, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM reset_tokens WHERE token = ? AND expires_at >= ? FOR UPDATE
	`
	rt := &entity.ResetToken{}
	err = tx.QueryRowContext(ctx, query, token, now).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM reset_tokens WHERE id = ?`, rt.ID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return rt, nil
}
