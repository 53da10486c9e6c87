package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockTokenRepo(t *testing.T) (*TokenRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTokenRepo(db), mock
}

func TestTokenRepoCreateAndGet(t *testing.T) {
	repo, mock := newMockTokenRepo(t)
	exp := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_tokens (user_id, token, token_type, expires_at) VALUES (?,?,?,?)")).
		WithArgs(uint64(2), "raw-token", "refresh", exp).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Create(context.Background(), 2, "raw-token", "refresh", exp))

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_tokens WHERE token=?")).
		WithArgs("raw-token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "token_type", "expires_at", "created_at"}).
			AddRow(1, 2, "raw-token", "refresh", exp, time.Now().UTC()))

	tok, err := repo.GetByToken(context.Background(), "raw-token")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tok.UserID)
	assert.Equal(t, "refresh", tok.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepoDeleteByToken(t *testing.T) {
	repo, mock := newMockTokenRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_tokens WHERE token=?")).
		WithArgs("raw-token").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.DeleteByToken(context.Background(), "raw-token")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTokenRepoDeleteExpired(t *testing.T) {
	repo, mock := newMockTokenRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_tokens WHERE expires_at < ?")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
