package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/service"
)

// UserHandler serves the user read/update surface.
type UserHandler struct {
	Svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler { return &UserHandler{Svc: svc} }

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}

// Get handles GET /api/users/:id with metadata and resolved roles.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id must be a positive integer"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := h.Svc.GetUserByID(ctx, id, true)
	if err != nil {
		return fail(c, err)
	}
	if user == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusOK, user)
}

// List handles GET /api/users?page&perPage&q.
func (h *UserHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("perPage"))
	if perPage == 0 {
		perPage = 20
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Svc.ListUsers(ctx, service.ListQuery{
		Page:    page,
		PerPage: perPage,
		Q:       c.QueryParam("q"),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Update handles PATCH /api/users/:id. The JWT middleware guarantees a
// caller identity; a user may edit themselves, anyone else needs the
// edit_users capability.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id must be a positive integer"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	callerID, _ := c.Get("user_id").(uint64)
	if callerID != id {
		ok, err := h.Svc.UserHasCapability(ctx, callerID, "edit_users")
		if err != nil {
			return fail(c, err)
		}
		if !ok {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}

	var in service.UpdateUserInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	user, err := h.Svc.UpdateUser(ctx, id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
