package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hunterdex/armory/internal/authz"
	"github.com/hunterdex/armory/internal/config"
	"github.com/hunterdex/armory/internal/es"
	"github.com/hunterdex/armory/internal/events"
	"github.com/hunterdex/armory/internal/handlers"
	"github.com/hunterdex/armory/internal/hash"
	"github.com/hunterdex/armory/internal/logging"
	authmw "github.com/hunterdex/armory/internal/middleware/auth"
	"github.com/hunterdex/armory/internal/models"
	"github.com/hunterdex/armory/internal/repo"
	"github.com/hunterdex/armory/internal/service"
	httpserver "github.com/hunterdex/armory/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	users := &repo.UserRepo{DB: db}
	roles := &repo.RoleRepo{DB: db}
	tokenRepo := &repo.TokenRepo{DB: db}
	weapons := &repo.WeaponRepo{DB: db}
	categories := &repo.CategoryRepo{DB: db}

	ctx := logging.IntoContext(context.Background(), logger)
	if err := roles.EnsureDefaults(ctx); err != nil {
		log.Fatalf("role seeding failed: %v", err)
	}
	if err := bootstrapAdmin(ctx, cfg, users, roles); err != nil {
		log.Fatalf("admin bootstrap failed: %v", err)
	}

	var producer *events.Producer
	if cfg.KAFKA_ADDRESS != "" {
		producer = events.NewProducer([]string{cfg.KAFKA_ADDRESS})
	}

	authSvc := &service.AuthService{
		Users:         users,
		Roles:         roles,
		Tokens:        tokenRepo,
		JWTSecret:     []byte(cfg.JWT_SECRET),
		RefreshSecret: []byte(cfg.REFRESH_SECRET),
		AccessTTL:     cfg.ACCESS_TTL,
		RefreshTTL:    cfg.REFRESH_TTL,
		Producer:      producer,
	}
	userSvc := &service.UserService{Users: users, Roles: roles, Producer: producer}
	roleSvc := &service.RoleService{Roles: roles}
	weaponSvc := &service.WeaponService{
		Weapons:    weapons,
		Categories: categories,
		Index:      "weapons",
		Producer:   producer,
	}

	if cfg.ES_URL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init failed: %v", err)
		}
		weaponSvc.ES = esClient
	} else {
		logger.Warn("elasticsearch not configured, weapon search disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), logging.RequestLogger(logger))

	deps := httpserver.Deps{
		Auth:    &handlers.AuthHandler{Svc: authSvc},
		Users:   &handlers.UserHandler{Svc: userSvc},
		Roles:   &handlers.RoleHandler{Svc: roleSvc},
		Weapons: &handlers.WeaponHandler{Svc: weaponSvc},
		MW:      &authmw.Middleware{JWTSecret: []byte(cfg.JWT_SECRET)},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         cfg.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()
	logger.Info("server started", "addr", cfg.HTTP_ADDR)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	logger.Info("shutdown complete")
}

// bootstrapAdmin creates the initial admin account from config. A noop
// when the variables are unset or the username is already taken.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, users *repo.UserRepo, roles *repo.RoleRepo) error {
	if cfg.ADMIN_USERNAME == "" || cfg.ADMIN_PASSWORD == "" {
		return nil
	}

	if _, err := users.FindByUsernameOrEmail(ctx, cfg.ADMIN_USERNAME); err == nil {
		return nil
	}

	adminRole, err := roles.GetByName(ctx, authz.RoleAdmin)
	if err != nil {
		return err
	}
	pwHash, err := hash.HashPassword(cfg.ADMIN_PASSWORD)
	if err != nil {
		return err
	}
	admin := &models.User{
		Username:     cfg.ADMIN_USERNAME,
		Email:        cfg.ADMIN_EMAIL,
		PasswordHash: pwHash,
		RoleID:       adminRole.ID,
		IsActive:     true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("admin account created", "username", admin.Username)
	return nil
}
