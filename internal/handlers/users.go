package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hunterdex/armory/internal/logging"
	authmw "github.com/hunterdex/armory/internal/middleware/auth"
	"github.com/hunterdex/armory/internal/service"
)

type UserHandler struct {
	Svc *service.UserService
}

// Me returns the authenticated user's profile with the current role and
// permission set from the store, not the token snapshot.
func (h *UserHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	claims := authmw.ClaimsFrom(c)

	user, err := h.Svc.Profile(ctx, claims.UserID)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":        summarize(user),
		"permissions": user.Role.PermissionList(),
	})
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}

	summaries := make([]userSummary, len(users))
	for i := range users {
		summaries[i] = summarize(&users[i])
	}
	return c.JSON(http.StatusOK, echo.Map{
		"users": summaries,
		"total": len(summaries),
	})
}

func (h *UserHandler) ChangeRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_change_role")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil || req.Role == "" {
		l.Warn("change_role_error", "status", 400)
		return echo.NewHTTPError(http.StatusBadRequest, "role is required")
	}

	user, err := h.Svc.ChangeRole(ctx, uint(id), req.Role)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "role updated",
		"user":    summarize(user),
	})
}

func (h *UserHandler) SetActive(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "is_active is required")
	}

	user, err := h.Svc.SetActive(ctx, uint(id), *req.IsActive)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"user": summarize(user)})
}
