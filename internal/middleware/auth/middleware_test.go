package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunterdex/armory/internal/authz"
	"github.com/hunterdex/armory/internal/tokens"
)

var testSecret = []byte("middleware-test-secret")

func signFor(t *testing.T, userID uint, role string, perms []string, ttl time.Duration) string {
	t.Helper()
	signed, _, err := tokens.SignAccess(userID, "tester", role, perms, testSecret, ttl)
	require.NoError(t, err)
	return signed
}

func run(t *testing.T, mw echo.MiddlewareFunc, token, paramName, paramValue string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if paramName != "" {
		c.SetParamNames(paramName)
		c.SetParamValues(paramValue)
	}

	reached := false
	handler := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, reached
}

func TestRequireAuth(t *testing.T) {
	m := &Middleware{JWTSecret: testSecret}

	t.Run("missing header", func(t *testing.T) {
		rec, reached := run(t, m.RequireAuth, "", "", "")
		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "token_missing")
	})

	t.Run("expired token", func(t *testing.T) {
		token := signFor(t, 1, authz.RoleUser, nil, 0)
		rec, reached := run(t, m.RequireAuth, token, "", "")
		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "token_expired")
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, reached := run(t, m.RequireAuth, "garbage", "", "")
		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "token_invalid")
	})

	t.Run("valid token reaches handler with claims", func(t *testing.T) {
		token := signFor(t, 7, authz.RoleUser, []string{authz.PermWeaponRead}, time.Hour)
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := m.RequireAuth(func(c echo.Context) error {
			claims := ClaimsFrom(c)
			require.NotNil(t, claims)
			assert.Equal(t, uint(7), claims.UserID)
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	m := &Middleware{JWTSecret: testSecret}
	mw := func(h echo.HandlerFunc) echo.HandlerFunc {
		return m.RequireAuth(m.RequireOwnerOrAdmin("id")(h))
	}

	t.Run("owner passes", func(t *testing.T) {
		token := signFor(t, 7, authz.RoleUser, nil, time.Hour)
		rec, reached := run(t, mw, token, "id", "7")
		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin passes on any resource", func(t *testing.T) {
		token := signFor(t, 1, authz.RoleAdmin, []string{authz.PermAdmin}, time.Hour)
		rec, reached := run(t, mw, token, "id", "7")
		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other user denied with both ids", func(t *testing.T) {
		token := signFor(t, 8, authz.RoleUser, nil, time.Hour)
		rec, reached := run(t, mw, token, "id", "7")
		assert.False(t, reached)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), `"resource_owner_id":"7"`)
		assert.Contains(t, rec.Body.String(), `"user_id":"8"`)
	})
}

func TestRequireRole(t *testing.T) {
	m := &Middleware{JWTSecret: testSecret}
	mw := func(h echo.HandlerFunc) echo.HandlerFunc {
		return m.RequireAuth(m.RequireRole(authz.RoleModerator)(h))
	}

	token := signFor(t, 3, authz.RoleModerator, nil, time.Hour)
	rec, reached := run(t, mw, token, "", "")
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)

	token = signFor(t, 4, authz.RoleUser, nil, time.Hour)
	rec, reached = run(t, mw, token, "", "")
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "required_roles")
}
