package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/service"
)

// RoleHandler exposes role assignment. Route-level capability middleware
// restricts who may call it.
type RoleHandler struct {
	Svc *service.UserService
}

func NewRoleHandler(svc *service.UserService) *RoleHandler { return &RoleHandler{Svc: svc} }

type assignRoleReq struct {
	Role string `json:"role"`
}

// Assign handles POST /api/users/:id/roles. The role is created on first
// use; repeating the call for the same pair is a no-op.
func (h *RoleHandler) Assign(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id must be a positive integer"})
	}
	var req assignRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	role, err := h.Svc.AssignRoleToUser(ctx, id, req.Role)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, role)
}
