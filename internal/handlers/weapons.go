package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hunterdex/armory/internal/models"
	"github.com/hunterdex/armory/internal/service"
	"github.com/hunterdex/armory/internal/util"
)

type WeaponHandler struct {
	Svc *service.WeaponService
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func (h *WeaponHandler) ListWeapons(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	weapons, total, err := h.Svc.ListWeapons(c.Request().Context(), offset, limit)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": weapons,
		"meta": echo.Map{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *WeaponHandler) GetWeapon(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	weapon, err := h.Svc.GetWeapon(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, weapon)
}

func (h *WeaponHandler) CreateWeapon(c echo.Context) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		CategoryID  uint   `json:"category_id"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	weapon := &models.Weapon{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}
	if err := h.Svc.CreateWeapon(c.Request().Context(), weapon); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, weapon)
}

func (h *WeaponHandler) UpdateWeapon(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		CategoryID  uint   `json:"category_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	weapon, err := h.Svc.UpdateWeapon(c.Request().Context(), id, req.Name, req.Description, req.CategoryID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, weapon)
}

func (h *WeaponHandler) DeleteWeapon(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteWeapon(c.Request().Context(), id); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "weapon deleted"})
}

// SearchWeapons is the ES-backed fuzzy search; 503 when search is not
// configured for this deployment.
func (h *WeaponHandler) SearchWeapons(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	if h.Svc.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, weapons, err := h.Svc.SearchWeapons(c.Request().Context(), q, from, limit)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "weapons": weapons})
}
