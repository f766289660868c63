package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hunterdex/armory/internal/logging"
	authmw "github.com/hunterdex/armory/internal/middleware/auth"
	"github.com/hunterdex/armory/internal/models"
	"github.com/hunterdex/armory/internal/service"
)

type AuthHandler struct {
	Svc *service.AuthService
}

type userSummary struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func summarize(u *models.User) userSummary {
	return userSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role.Name,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"user": summarize(user)})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	res, err := h.Svc.Login(ctx, identifier, req.Password)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":       res.AccessToken,
		"refresh_token":      res.RefreshToken,
		"expires_in":         int64(time.Until(res.AccessExp).Seconds()),
		"refresh_expires_in": int64(time.Until(res.RefreshExp).Seconds()),
		"user":               summarize(res.User),
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		l.Warn("refresh_error", "status", 400)
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": res.AccessToken,
		"expires_in":   int64(time.Until(res.AccessExp).Seconds()),
	})
}

// Logout revokes the refresh token from the body, or every token of the
// authenticated user when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	claims := authmw.ClaimsFrom(c)

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	// An empty body means revoke-all; binding errors are treated the same.
	_ = c.Bind(&req)

	revoked, err := h.Svc.Logout(ctx, claims.UserID, req.RefreshToken)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
		"revoked": revoked,
	})
}

// CleanupTokens deletes refresh rows past expiry; admin maintenance.
func (h *AuthHandler) CleanupTokens(c echo.Context) error {
	deleted, err := h.Svc.CleanupExpired(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": deleted})
}
