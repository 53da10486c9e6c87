package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/user-account-service/internal/model"
)

// TokenRepo persists opaque refresh tokens in the `user_tokens` table.
// Revocation deletes rows; expired rows are removed by the sweeper.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Create inserts a token row.
func (r *TokenRepo) Create(ctx context.Context, userID uint64, token, tokenType string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_tokens (user_id, token, token_type, expires_at) VALUES (?,?,?,?)",
		userID, token, tokenType, expiresAt)
	return err
}

// GetByToken returns the row matching the raw token string. Expiry is not
// checked here; callers decide what an expired row means.
func (r *TokenRepo) GetByToken(ctx context.Context, token string) (model.UserToken, error) {
	var t model.UserToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,token,token_type,expires_at,created_at FROM user_tokens WHERE token=? LIMIT 1",
		token).Scan(&t.ID, &t.UserID, &t.Token, &t.Type, &t.ExpiresAt, &t.CreatedAt)
	return t, err
}

// DeleteByToken removes every row matching the token string and reports
// how many were deleted. Tokens are unique, so the count is 0 or 1.
func (r *TokenRepo) DeleteByToken(ctx context.Context, token string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM user_tokens WHERE token=?", token)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired purges rows whose expiry has passed and reports the count.
func (r *TokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM user_tokens WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
