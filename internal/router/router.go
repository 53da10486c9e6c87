package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/config"
	"github.com/iliyamo/user-account-service/internal/handler"
	"github.com/iliyamo/user-account-service/internal/middleware"
	"github.com/iliyamo/user-account-service/internal/service"
)

// Handlers groups everything the router needs to wire the REST surface.
type Handlers struct {
	Auth *handler.AuthHandler
	User *handler.UserHandler
	Meta *handler.MetaHandler
	Role *handler.RoleHandler
}

// Register mounts the whole REST surface. Public endpoints (signup,
// login, refresh, logout, listing, detail) live under /api; endpoints
// that mutate other users additionally require a Bearer access token and,
// where noted, a capability.
func Register(e *echo.Echo, cfg config.Config, svc *service.UserService, h Handlers,
	rateLimit echo.MiddlewareFunc, cache echo.MiddlewareFunc) {

	e.GET("/health", handler.Health)

	api := e.Group("/api")

	// Session endpoints carry the brunt of brute-force traffic, so the
	// token bucket guards the whole public group.
	pub := api.Group("", rateLimit)
	pub.POST("/users", h.Auth.Register)
	pub.POST("/users/login", h.Auth.Login)
	pub.POST("/users/refresh", h.Auth.Refresh)
	pub.POST("/users/logout", h.Auth.Logout)
	pub.GET("/users", h.User.List, cache)
	pub.GET("/users/:id", h.User.Get)

	// Everything below needs a valid access token.
	auth := api.Group("", middleware.JWTAuth(cfg.JWTSecret))
	auth.GET("/me", h.Auth.Me)
	auth.PATCH("/users/:id", h.User.Update)
	auth.GET("/users/:id/meta", h.Meta.List)
	auth.GET("/users/:id/meta/:key", h.Meta.Get)
	auth.PUT("/users/:id/meta/:key", h.Meta.Set)
	auth.POST("/users/:id/roles", h.Role.Assign,
		middleware.RequireCapability(svc, "promote_users"))
}
