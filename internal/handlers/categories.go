package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hunterdex/armory/internal/models"
)

func (h *WeaponHandler) ListCategories(c echo.Context) error {
	categories, err := h.Svc.ListCategories(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *WeaponHandler) GetCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	category, err := h.Svc.GetCategory(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *WeaponHandler) CreateCategory(c echo.Context) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	category := &models.WeaponCategory{Name: req.Name, Description: req.Description}
	if err := h.Svc.CreateCategory(c.Request().Context(), category); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *WeaponHandler) UpdateCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	category, err := h.Svc.UpdateCategory(c.Request().Context(), id, req.Name, req.Description)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *WeaponHandler) DeleteCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteCategory(c.Request().Context(), id); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "category deleted"})
}
