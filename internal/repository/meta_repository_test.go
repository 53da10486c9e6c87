package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var metaCols = []string{"id", "user_id", "meta_key", "meta_value"}

func newMockMetaRepo(t *testing.T) (*MetaRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMetaRepo(db), mock
}

func TestMetaRepoUpsert(t *testing.T) {
	repo, mock := newMockMetaRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE meta_value=VALUES(meta_value)")).
		WithArgs(uint64(3), "theme", "dark").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_meta WHERE user_id=? AND meta_key=?")).
		WithArgs(uint64(3), "theme").
		WillReturnRows(sqlmock.NewRows(metaCols).AddRow(5, 3, "theme", "dark"))

	rec, err := repo.Upsert(context.Background(), 3, "theme", "dark")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), rec.ID)
	assert.Equal(t, "dark", rec.MetaValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetaRepoGet_Missing(t *testing.T) {
	repo, mock := newMockMetaRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_meta WHERE user_id=? AND meta_key=?")).
		WithArgs(uint64(3), "absent").
		WillReturnRows(sqlmock.NewRows(metaCols))

	_, err := repo.Get(context.Background(), 3, "absent")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMetaRepoListByUser(t *testing.T) {
	repo, mock := newMockMetaRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_meta WHERE user_id=? ORDER BY meta_key")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(metaCols).
			AddRow(1, 3, "locale", "en").
			AddRow(2, 3, "theme", "dark"))

	rows, err := repo.ListByUser(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "locale", rows[0].MetaKey)
	assert.Equal(t, "theme", rows[1].MetaKey)
}
