// Package auth adapts the authz gate to Echo. The gate itself stays
// framework-free; these middlewares only extract claims and translate
// decisions into responses.
package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hunterdex/armory/internal/apperr"
	"github.com/hunterdex/armory/internal/authz"
	"github.com/hunterdex/armory/internal/logging"
	"github.com/hunterdex/armory/internal/tokens"
)

const claimsKey = "claims"

type Middleware struct {
	JWTSecret []byte
}

// ClaimsFrom returns the claims RequireAuth stored on the context, or nil
// when the route was not authenticated.
func ClaimsFrom(c echo.Context) *tokens.AccessClaims {
	if v := c.Get(claimsKey); v != nil {
		if claims, ok := v.(*tokens.AccessClaims); ok {
			return claims
		}
	}
	return nil
}

// RequireAuth parses the bearer access token and stores its claims on the
// context. Missing, expired and malformed tokens map to distinct codes.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return unauthorized(c, "token_missing", apperr.ErrTokenMissing.Error())
		}

		claims, err := tokens.ParseAccess(raw, m.JWTSecret)
		if err != nil {
			if errors.Is(err, apperr.ErrTokenExpired) {
				return unauthorized(c, "token_expired", apperr.ErrTokenExpired.Error())
			}
			return unauthorized(c, "token_invalid", apperr.ErrTokenInvalid.Error())
		}

		c.Set(claimsKey, claims)
		return next(c)
	}
}

// RequirePermission gates a route on any of the given permissions.
// Run it after RequireAuth.
func (m *Middleware) RequirePermission(perms ...string) echo.MiddlewareFunc {
	return m.gate(func(echo.Context) authz.Requirement {
		return authz.AnyPermission(perms...)
	}, func(c echo.Context, d authz.Decision) error {
		return forbidden(c, d, echo.Map{
			"required_permissions": d.Required,
			"user_permissions":     d.Actual,
		})
	})
}

// RequireRole gates a route on an exact role match.
func (m *Middleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return m.gate(func(echo.Context) authz.Requirement {
		return authz.AnyRole(roles...)
	}, func(c echo.Context, d authz.Decision) error {
		return forbidden(c, d, echo.Map{
			"required_roles": d.Required,
			"user_role":      strings.Join(d.Actual, ""),
		})
	})
}

// RequireOwnerOrAdmin gates a route carrying a user id path param so that
// only that user or an admin passes. The denial reports both ids.
func (m *Middleware) RequireOwnerOrAdmin(param string) echo.MiddlewareFunc {
	return m.gate(func(c echo.Context) authz.Requirement {
		ownerID, _ := strconv.ParseUint(c.Param(param), 10, 64)
		return authz.OwnResourceOrAdmin(uint(ownerID))
	}, func(c echo.Context, d authz.Decision) error {
		return forbidden(c, d, echo.Map{
			"resource_owner_id": strings.Join(d.Required, ""),
			"user_id":           strings.Join(d.Actual, ""),
		})
	})
}

func (m *Middleware) gate(
	requirement func(echo.Context) authz.Requirement,
	deny func(echo.Context, authz.Decision) error,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return unauthorized(c, "token_missing", apperr.ErrTokenMissing.Error())
			}
			decision := authz.Evaluate(claims, requirement(c))
			if !decision.Allowed {
				logging.FromContext(c.Request().Context()).Warn("access_denied",
					"user_id", claims.UserID,
					"reason", decision.Reason,
				)
				return deny(c, decision)
			}
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, code, message string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": message, "code": code})
}

func forbidden(c echo.Context, d authz.Decision, detail echo.Map) error {
	body := echo.Map{
		"error":  "access denied",
		"code":   "forbidden",
		"reason": d.Reason,
	}
	for k, v := range detail {
		body[k] = v
	}
	return c.JSON(http.StatusForbidden, body)
}
