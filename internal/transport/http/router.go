package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/hunterdex/armory/internal/authz"
	"github.com/hunterdex/armory/internal/handlers"
	authmw "github.com/hunterdex/armory/internal/middleware/auth"
)

type Deps struct {
	Auth    *handlers.AuthHandler
	Users   *handlers.UserHandler
	Roles   *handlers.RoleHandler
	Weapons *handlers.WeaponHandler
	MW      *authmw.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)

	authed := auth.Group("", d.MW.RequireAuth)
	authed.POST("/logout", d.Auth.Logout)
	authed.GET("/me", d.Users.Me)
	authed.GET("/roles", d.Roles.List)

	admin := auth.Group("", d.MW.RequireAuth, d.MW.RequirePermission(authz.PermAdmin))
	admin.GET("/users", d.Users.List)
	admin.PUT("/users/:id/role", d.Users.ChangeRole)
	admin.PUT("/users/:id/active", d.Users.SetActive)
	admin.POST("/roles", d.Roles.Create)
	admin.POST("/tokens/cleanup", d.Auth.CleanupTokens)

	categories := v1.Group("/categories", d.MW.RequireAuth)
	categories.GET("", d.Weapons.ListCategories, d.MW.RequirePermission(authz.PermCategoryRead))
	categories.GET("/:id", d.Weapons.GetCategory, d.MW.RequirePermission(authz.PermCategoryRead))
	categories.POST("", d.Weapons.CreateCategory, d.MW.RequirePermission(authz.PermCategoryCreate))
	categories.PUT("/:id", d.Weapons.UpdateCategory, d.MW.RequirePermission(authz.PermCategoryUpdate))
	categories.DELETE("/:id", d.Weapons.DeleteCategory, d.MW.RequirePermission(authz.PermCategoryDelete))

	weapons := v1.Group("/weapons", d.MW.RequireAuth)
	weapons.GET("", d.Weapons.ListWeapons, d.MW.RequirePermission(authz.PermWeaponRead))
	weapons.GET("/search", d.Weapons.SearchWeapons, d.MW.RequirePermission(authz.PermWeaponRead))
	weapons.GET("/:id", d.Weapons.GetWeapon, d.MW.RequirePermission(authz.PermWeaponRead))
	weapons.POST("", d.Weapons.CreateWeapon, d.MW.RequirePermission(authz.PermWeaponCreate))
	weapons.PUT("/:id", d.Weapons.UpdateWeapon, d.MW.RequirePermission(authz.PermWeaponUpdate))
	weapons.DELETE("/:id", d.Weapons.DeleteWeapon, d.MW.RequirePermission(authz.PermWeaponDelete))
}
