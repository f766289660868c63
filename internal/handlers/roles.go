package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hunterdex/armory/internal/models"
	"github.com/hunterdex/armory/internal/service"
)

type RoleHandler struct {
	Svc *service.RoleService
}

type roleView struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

func viewRole(r *models.Role) roleView {
	return roleView{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: r.PermissionList(),
	}
}

func (h *RoleHandler) List(c echo.Context) error {
	roles, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}

	views := make([]roleView, len(roles))
	for i := range roles {
		views[i] = viewRole(&roles[i])
	}
	return c.JSON(http.StatusOK, echo.Map{"roles": views, "total": len(views)})
}

func (h *RoleHandler) Create(c echo.Context) error {
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Permissions []string `json:"permissions"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	role, err := h.Svc.Create(c.Request().Context(), req.Name, req.Description, req.Permissions)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"role": viewRole(role)})
}
