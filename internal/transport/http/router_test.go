package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hunterdex/armory/internal/handlers"
	authmw "github.com/hunterdex/armory/internal/middleware/auth"
	"github.com/hunterdex/armory/internal/models"
	"github.com/hunterdex/armory/internal/repo"
	"github.com/hunterdex/armory/internal/service"
)

// testApp wires the full router against an in-memory store with no kafka
// producer and no search client, the way a minimal deployment runs.
type testApp struct {
	e  *echo.Echo
	db *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Role{}, &models.User{}, &models.RefreshToken{},
		&models.WeaponCategory{}, &models.Weapon{},
	))

	users := &repo.UserRepo{DB: db}
	roles := &repo.RoleRepo{DB: db}
	toks := &repo.TokenRepo{DB: db}
	require.NoError(t, roles.EnsureDefaults(context.Background()))

	authSvc := &service.AuthService{
		Users:         users,
		Roles:         roles,
		Tokens:        toks,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	}

	e := echo.New()
	Register(e, &Deps{
		Auth:  &handlers.AuthHandler{Svc: authSvc},
		Users: &handlers.UserHandler{Svc: &service.UserService{Users: users, Roles: roles}},
		Roles: &handlers.RoleHandler{Svc: &service.RoleService{Roles: roles}},
		Weapons: &handlers.WeaponHandler{Svc: &service.WeaponService{
			Weapons:    &repo.WeaponRepo{DB: db},
			Categories: &repo.CategoryRepo{DB: db},
		}},
		MW: &authmw.Middleware{JWTSecret: authSvc.JWTSecret},
	})
	return &testApp{e: e, db: db}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) request(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	rec := a.do(t, method, path, token, body)
	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

// requestList is for endpoints whose top-level response is a JSON array.
func (a *testApp) requestList(t *testing.T, method, path, token string, body any) (int, []any) {
	t.Helper()
	rec := a.do(t, method, path, token, body)
	var out []any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

// register creates an account through the public endpoint.
func (a *testApp) register(t *testing.T, username, email string) {
	t.Helper()
	code, _ := a.request(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": username,
		"email":    email,
		"password": "Passw0rd",
	})
	require.Equal(t, http.StatusCreated, code)
}

// login returns the access and refresh tokens for an account.
func (a *testApp) login(t *testing.T, username string) (access, refresh string) {
	t.Helper()
	code, body := a.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": username,
		"password": "Passw0rd",
	})
	require.Equal(t, http.StatusOK, code)
	access, _ = body["access_token"].(string)
	refresh, _ = body["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	return access, refresh
}

// promote moves a user onto the named role directly in the store. Tokens
// still reflect the snapshot taken at issuance, so call it before login.
func (a *testApp) promote(t *testing.T, username, roleName string) {
	t.Helper()
	var role models.Role
	require.NoError(t, a.db.Where("name = ?", roleName).First(&role).Error)
	require.NoError(t, a.db.Model(&models.User{}).
		Where("username = ?", username).
		Update("role_id", role.ID).Error)
}

func (a *testApp) userID(t *testing.T, username string) uint {
	t.Helper()
	var user models.User
	require.NoError(t, a.db.Where("username = ?", username).First(&user).Error)
	return user.ID
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	code, _ := app.request(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = app.request(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, code)
}
