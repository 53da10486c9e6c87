package handler

import (
	"encoding/json"
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/user-account-service/internal/logger"
	"github.com/iliyamo/user-account-service/internal/service"
)

func newMetaEnv(t *testing.T) (*MetaHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMetaHandler(service.NewUserService(db, logger.New(true), bcrypt.MinCost)), mock
}

func metaCtx(e *echo.Echo, req *http.Request, rec http.ResponseWriter, id, key string) echo.Context {
	c := e.NewContext(req, rec)
	c.SetPath("/api/users/:id/meta/:key")
	c.SetParamNames("id", "key")
	c.SetParamValues(id, key)
	return c
}

func TestMetaSet(t *testing.T) {
	h, mock := newMetaEnv(t)
	e := echo.New()
	cols := []string{"id", "user_id", "meta_key", "meta_value"}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_meta")).
		WithArgs(uint64(3), "prefs", `{"lang":"en"}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_meta WHERE user_id=? AND meta_key=?")).
		WithArgs(uint64(3), "prefs").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 3, "prefs", `{"lang":"en"}`))

	req, rec := jsonRequest(http.MethodPut, "/api/users/3/meta/prefs", `{"value":{"lang":"en"}}`)
	require.NoError(t, h.Set(metaCtx(e, req, rec, "3", "prefs")))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "prefs", body["metaKey"])
	assert.Equal(t, `{"lang":"en"}`, body["metaValue"])
}

func TestMetaGet(t *testing.T) {
	h, mock := newMetaEnv(t)
	e := echo.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_meta WHERE user_id=? AND meta_key=?")).
		WithArgs(uint64(3), "prefs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "meta_key", "meta_value"}).
			AddRow(1, 3, "prefs", `{"lang":"en"}`))

	req, rec := jsonRequest(http.MethodGet, "/api/users/3/meta/prefs", "")
	require.NoError(t, h.Get(metaCtx(e, req, rec, "3", "prefs")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"value":{"lang":"en"}}`, rec.Body.String())
}

func TestMetaGet_NotFound(t *testing.T) {
	h, mock := newMetaEnv(t)
	e := echo.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_meta WHERE user_id=? AND meta_key=?")).
		WithArgs(uint64(3), "absent").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "meta_key", "meta_value"}))

	req, rec := jsonRequest(http.MethodGet, "/api/users/3/meta/absent", "")
	require.NoError(t, h.Get(metaCtx(e, req, rec, "3", "absent")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetaList(t *testing.T) {
	h, mock := newMetaEnv(t)
	e := echo.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_meta WHERE user_id=? ORDER BY meta_key")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "meta_key", "meta_value"}).
			AddRow(1, 3, "locale", "en").
			AddRow(2, 3, "theme", "dark"))

	req, rec := jsonRequest(http.MethodGet, "/api/users/3/meta", "")
	c := e.NewContext(req, rec)
	c.SetPath("/api/users/:id/meta")
	c.SetParamNames("id")
	c.SetParamValues("3")
	require.NoError(t, h.List(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "locale", rows[0]["metaKey"])
}

func TestRoleAssign(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	h := NewRoleHandler(service.NewUserService(db, logger.New(true), bcrypt.MinCost))
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM roles WHERE name=?")).
		WithArgs("editor").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capabilities"}).
			AddRow(2, "editor", `{"edit_users":true}`))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_roles")).
		WithArgs(uint64(3), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req, rec := jsonRequest(http.MethodPost, "/api/users/3/roles", `{"role":"editor"}`)
	c := e.NewContext(req, rec)
	c.SetPath("/api/users/:id/roles")
	c.SetParamNames("id")
	c.SetParamValues("3")
	require.NoError(t, h.Assign(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "editor", body["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
