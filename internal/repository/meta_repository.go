package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/user-account-service/internal/model"
)

// MetaRepo persists per-user key/value metadata in the `user_meta` table.
// The (user_id, meta_key) unique key lets Upsert run as a single atomic
// statement instead of a racy find-then-write sequence.
type MetaRepo struct{ DB *sql.DB }

func NewMetaRepo(db *sql.DB) *MetaRepo { return &MetaRepo{DB: db} }

// Upsert inserts or replaces the value for (userID, key) in one statement
// and returns the resulting row.
func (r *MetaRepo) Upsert(ctx context.Context, userID uint64, key, value string) (model.UserMeta, error) {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO user_meta (user_id, meta_key, meta_value) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE meta_value=VALUES(meta_value)`,
		userID, key, value)
	if err != nil {
		return model.UserMeta{}, err
	}
	return r.Get(ctx, userID, key)
}

// Get returns the single row for (userID, key). sql.ErrNoRows passes
// through when the key is absent.
func (r *MetaRepo) Get(ctx context.Context, userID uint64, key string) (model.UserMeta, error) {
	var m model.UserMeta
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,meta_key,meta_value FROM user_meta WHERE user_id=? AND meta_key=? LIMIT 1",
		userID, key).Scan(&m.ID, &m.UserID, &m.MetaKey, &m.MetaValue)
	return m, err
}

// ListByUser returns every meta row owned by the user.
func (r *MetaRepo) ListByUser(ctx context.Context, userID uint64) ([]model.UserMeta, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,meta_key,meta_value FROM user_meta WHERE user_id=? ORDER BY meta_key",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserMeta{}
	for rows.Next() {
		var m model.UserMeta
		if err := rows.Scan(&m.ID, &m.UserID, &m.MetaKey, &m.MetaValue); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
