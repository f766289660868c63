package httpserver

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterThenDuplicateEmail(t *testing.T) {
	app := newTestApp(t)

	code, body := app.request(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": "hunter",
		"email":    "hunter@guild.io",
		"password": "Passw0rd",
	})
	require.Equal(t, http.StatusCreated, code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "hunter", user["username"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "password_hash")

	code, body = app.request(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": "hunter2",
		"email":    "hunter@guild.io",
		"password": "Passw0rd",
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "duplicate_identity", body["code"])
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	app := newTestApp(t)

	code, body := app.request(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": "hunter",
		"email":    "hunter@guild.io",
		"password": "weak",
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", body["code"])
	assert.Equal(t, "password", body["field"])
}

func TestLoginFlow(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "hunter", "hunter@guild.io")

	code, body := app.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": "hunter",
		"password": "Passw0rd",
	})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	assert.Greater(t, body["expires_in"].(float64), float64(0))

	code, body = app.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": "hunter",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid_credentials", body["code"])

	// Unknown accounts fail with the very same body.
	code, body = app.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": "nobody",
		"password": "Passw0rd",
	})
	require.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid_credentials", body["code"])
}

func TestRefreshEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "hunter", "hunter@guild.io")
	_, refresh := app.login(t, "hunter")

	code, body := app.request(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": refresh,
	})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["access_token"])

	// Not rotated: the same refresh token works again.
	code, _ = app.request(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": refresh,
	})
	require.Equal(t, http.StatusOK, code)

	code, body = app.request(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": "garbage",
	})
	require.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "token_invalid", body["code"])
}

func TestLogoutRevokesAllSessions(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "hunter", "hunter@guild.io")

	refreshes := make([]string, 3)
	var access string
	for i := range refreshes {
		access, refreshes[i] = app.login(t, "hunter")
	}

	// Empty body means revoke everything.
	code, body := app.request(t, http.MethodPost, "/api/v1/auth/logout", access, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["revoked"])

	for _, refresh := range refreshes {
		code, body = app.request(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
			"refresh_token": refresh,
		})
		require.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "token_invalid", body["code"])
	}
}

func TestLogoutSingleToken(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "hunter", "hunter@guild.io")

	access, first := app.login(t, "hunter")
	_, second := app.login(t, "hunter")

	code, body := app.request(t, http.MethodPost, "/api/v1/auth/logout", access, map[string]any{
		"refresh_token": first,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["revoked"])

	code, _ = app.request(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": first,
	})
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = app.request(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": second,
	})
	require.Equal(t, http.StatusOK, code)
}

func TestMe(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "hunter", "hunter@guild.io")
	access, _ := app.login(t, "hunter")

	code, body := app.request(t, http.MethodGet, "/api/v1/auth/me", access, nil)
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "hunter", user["username"])
	assert.ElementsMatch(t, []any{"weapon_read", "category_read"}, body["permissions"])

	code, body = app.request(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "token_missing", body["code"])
}

func TestAdminEndpointsForbiddenToUsers(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "hunter", "hunter@guild.io")
	access, _ := app.login(t, "hunter")

	code, body := app.request(t, http.MethodGet, "/api/v1/auth/users", access, nil)
	require.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", body["code"])
	assert.Equal(t, []any{"admin"}, body["required_permissions"])
	assert.ElementsMatch(t, []any{"weapon_read", "category_read"}, body["user_permissions"])

	code, _ = app.request(t, http.MethodPost, "/api/v1/auth/tokens/cleanup", access, nil)
	require.Equal(t, http.StatusForbidden, code)
}

func TestChangeRoleAndLastAdminProtection(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "boss", "boss@guild.io")
	app.promote(t, "boss", "admin")
	app.register(t, "hunter", "hunter@guild.io")
	adminAccess, _ := app.login(t, "boss")

	// Promote the regular user to moderator through the API.
	path := fmt.Sprintf("/api/v1/auth/users/%d/role", app.userID(t, "hunter"))
	code, body := app.request(t, http.MethodPut, path, adminAccess, map[string]any{"role": "moderator"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "moderator", body["user"].(map[string]any)["role"])

	// The sole admin cannot demote themselves.
	path = fmt.Sprintf("/api/v1/auth/users/%d/role", app.userID(t, "boss"))
	code, body = app.request(t, http.MethodPut, path, adminAccess, map[string]any{"role": "user"})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "last_admin_protection", body["code"])

	// Nor deactivate themselves.
	path = fmt.Sprintf("/api/v1/auth/users/%d/active", app.userID(t, "boss"))
	code, body = app.request(t, http.MethodPut, path, adminAccess, map[string]any{"is_active": false})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "last_admin_protection", body["code"])
}

func TestRoleListAndCreate(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "boss", "boss@guild.io")
	app.promote(t, "boss", "admin")
	access, _ := app.login(t, "boss")

	code, body := app.request(t, http.MethodGet, "/api/v1/auth/roles", access, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["total"])

	code, body = app.request(t, http.MethodPost, "/api/v1/auth/roles", access, map[string]any{
		"name":        "archivist",
		"description": "read-only catalogue access",
		"permissions": []string{"weapon_read", "category_read"},
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "archivist", body["role"].(map[string]any)["name"])

	// Shipped roles cannot be redefined.
	code, body = app.request(t, http.MethodPost, "/api/v1/auth/roles", access, map[string]any{
		"name":        "admin",
		"permissions": []string{"weapon_read"},
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "duplicate_role", body["code"])
}

func TestTokenCleanupEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "boss", "boss@guild.io")
	app.promote(t, "boss", "admin")
	access, _ := app.login(t, "boss")

	code, body := app.request(t, http.MethodPost, "/api/v1/auth/tokens/cleanup", access, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["deleted"])
}
