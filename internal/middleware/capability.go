package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/service"
)

// RequireCapability returns a middleware that rejects requests whose
// authenticated user does not hold the named capability, either through a
// normalized role or the legacy capabilities meta. It assumes JWTAuth ran
// first and stored the user ID in the context.
func RequireCapability(svc *service.UserService, capability string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := c.Get("user_id").(uint64)
			if !ok || uid == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			has, err := svc.UserHasCapability(c.Request().Context(), uid, capability)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "capability check failed"})
			}
			if !has {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
