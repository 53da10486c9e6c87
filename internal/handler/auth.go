package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/config"
	"github.com/iliyamo/user-account-service/internal/queue"
	"github.com/iliyamo/user-account-service/internal/service"
	"github.com/iliyamo/user-account-service/internal/utils"
)

// refreshCookieName is the httpOnly cookie carrying the opaque refresh
// token between browser and API.
const refreshCookieName = "refresh_token"

// AuthHandler bundles dependencies for signup and session endpoints.
type AuthHandler struct {
	Cfg config.Config
	Svc *service.UserService
}

func NewAuthHandler(cfg config.Config, svc *service.UserService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Svc: svc}
}

// ----- DTOs -----

type loginReq struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type authResp struct {
	User   any               `json:"user"`
	Access utils.AccessToken `json:"access"`
}

// Register handles POST /api/users: validate, create, publish the signup
// event and respond 201 with the public projection.
func (h *AuthHandler) Register(c echo.Context) error {
	var in service.CreateUserInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := h.Svc.CreateUser(ctx, in)
	if err != nil {
		return fail(c, err)
	}

	// Best effort: a broker outage must not fail the signup.
	go queue.PublishUserRegistered(queue.UserRegisteredEvent{
		UserID:       user.ID,
		Login:        user.Login,
		Email:        user.Email,
		RegisteredAt: user.CreatedAt.UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, user)
}

// Login handles POST /api/users/login: authenticate by login or email,
// set the refresh cookie and return the user plus a JWT access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := h.Svc.Authenticate(ctx, req.Login, req.Password)
	if err != nil {
		return fail(c, err)
	}
	if user == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	refresh, err := h.Svc.CreateRefreshToken(ctx, user.ID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return fail(c, err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, user.Login, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	h.setRefreshCookie(c, refresh.Raw, refresh.Exp)
	return c.JSON(http.StatusOK, authResp{User: user, Access: access})
}

// Refresh handles POST /api/users/refresh: validate the presented token,
// rotate it and return a fresh access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := h.refreshFromRequest(c)
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	userID, err := h.Svc.ValidateRefreshToken(ctx, raw)
	if err != nil {
		return fail(c, err)
	}
	if _, err := h.Svc.RevokeRefreshToken(ctx, raw); err != nil {
		return fail(c, err)
	}

	user, err := h.Svc.GetUserByID(ctx, userID, false)
	if err != nil {
		return fail(c, err)
	}
	if user == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	refresh, err := h.Svc.CreateRefreshToken(ctx, userID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return fail(c, err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, user.Login, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	h.setRefreshCookie(c, refresh.Raw, refresh.Exp)
	return c.JSON(http.StatusOK, authResp{User: user.UserPublicView, Access: access})
}

// Logout handles POST /api/users/logout: revoke the presented refresh
// token and clear the cookie. Revoking an unknown token still succeeds so
// logout is idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw := h.refreshFromRequest(c)
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Svc.RevokeRefreshToken(ctx, raw); err != nil {
		return fail(c, err)
	}
	h.setRefreshCookie(c, "", time.Unix(0, 0))
	return c.NoContent(http.StatusNoContent)
}

// Me returns the identity claims extracted by the JWT middleware.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"login":   c.Get("login"),
	})
}

// refreshFromRequest pulls the raw refresh token from the cookie or, as a
// fallback for non-browser clients, from the JSON body.
func (h *AuthHandler) refreshFromRequest(c echo.Context) string {
	if ck, err := c.Cookie(refreshCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	var req refreshReq
	_ = c.Bind(&req)
	return strings.TrimSpace(req.RefreshToken)
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, value string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.Cfg.IsProd(),
		SameSite: http.SameSiteLaxMode,
	})
}
