package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/service"
)

// dbTimeout bounds every database-touching request handler.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// fail translates a service error into the JSON error contract:
// validation and conflict map to 400, auth to 401, not-found to 404 and
// anything else to 500 with a generic message.
func fail(c echo.Context, err error) error {
	switch service.KindOf(err) {
	case service.KindValidation, service.KindConflict:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case service.KindAuth:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	case service.KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
