package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/service"
)

// MetaHandler serves per-user key/value metadata.
type MetaHandler struct {
	Svc *service.UserService
}

func NewMetaHandler(svc *service.UserService) *MetaHandler { return &MetaHandler{Svc: svc} }

type setMetaReq struct {
	Value any `json:"value"`
}

// Set handles PUT /api/users/:id/meta/:key.
func (h *MetaHandler) Set(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id must be a positive integer"})
	}
	var req setMetaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Svc.SetUserMeta(ctx, id, c.Param("key"), req.Value)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Get handles GET /api/users/:id/meta/:key, returning the decoded value.
func (h *MetaHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id must be a positive integer"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	val, err := h.Svc.GetUserMeta(ctx, id, c.Param("key"))
	if err != nil {
		return fail(c, err)
	}
	if val == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"value": val})
}

// List handles GET /api/users/:id/meta, returning all raw rows.
func (h *MetaHandler) List(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id must be a positive integer"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Svc.ListUserMeta(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}
