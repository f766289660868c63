package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hunterdex/armory/internal/apperr"
	"github.com/hunterdex/armory/internal/logging"
)

// httpError is the single translation point from error kinds to HTTP
// responses. Anything unrecognized is a 500 with a generic body; the
// underlying error goes to the log, never to the client.
func httpError(c echo.Context, err error) error {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": verr.Message,
			"code":  "validation_error",
			"field": verr.Field,
		})
	}

	switch {
	case errors.Is(err, apperr.ErrValidation):
		return respond(c, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, apperr.ErrDuplicateIdentity):
		return respond(c, http.StatusBadRequest, "duplicate_identity", err)
	case errors.Is(err, apperr.ErrDuplicateRole):
		return respond(c, http.StatusBadRequest, "duplicate_role", err)
	case errors.Is(err, apperr.ErrLastAdmin):
		return respond(c, http.StatusBadRequest, "last_admin_protection", err)
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return respond(c, http.StatusUnauthorized, "invalid_credentials", err)
	case errors.Is(err, apperr.ErrTokenMissing):
		return respond(c, http.StatusUnauthorized, "token_missing", err)
	case errors.Is(err, apperr.ErrTokenExpired):
		return respond(c, http.StatusUnauthorized, "token_expired", err)
	case errors.Is(err, apperr.ErrTokenInvalid):
		return respond(c, http.StatusUnauthorized, "token_invalid", err)
	case errors.Is(err, apperr.ErrUserInactive):
		return respond(c, http.StatusUnauthorized, "user_inactive", err)
	case errors.Is(err, apperr.ErrForbidden):
		return respond(c, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, apperr.ErrNotFound):
		return respond(c, http.StatusNotFound, "not_found", err)
	}

	logging.FromContext(c.Request().Context()).Error("internal_error", "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"error": "internal error",
		"code":  "internal_error",
	})
}

func respond(c echo.Context, status int, code string, err error) error {
	return c.JSON(status, echo.Map{"error": err.Error(), "code": code})
}
