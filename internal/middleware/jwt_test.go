package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-account-service/internal/utils"
)

func runJWT(t *testing.T, secret, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTAuth(secret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, c
}

func TestJWTAuth_ValidToken(t *testing.T) {
	at, err := utils.NewAccessToken("s3cret", 42, "alice", 15)
	require.NoError(t, err)

	rec, c := runJWT(t, "s3cret", "Bearer "+at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), c.Get("user_id"))
	assert.Equal(t, "alice", c.Get("login"))
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	rec, _ := runJWT(t, "s3cret", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_WrongScheme(t *testing.T) {
	rec, _ := runJWT(t, "s3cret", "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("secret-a", 42, "alice", 15)
	require.NoError(t, err)

	rec, _ := runJWT(t, "secret-b", "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	at, err := utils.NewAccessToken("s3cret", 42, "alice", -5)
	require.NoError(t, err)

	rec, _ := runJWT(t, "s3cret", "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_GarbageToken(t *testing.T) {
	rec, _ := runJWT(t, "s3cret", "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubjectID(t *testing.T) {
	assert.Equal(t, uint64(7), subjectID(map[string]any{"sub": float64(7)}))
	assert.Equal(t, uint64(7), subjectID(map[string]any{"sub": "7"}))
	assert.Equal(t, uint64(0), subjectID(map[string]any{"sub": "seven"}))
	assert.Equal(t, uint64(0), subjectID(map[string]any{}))
}
