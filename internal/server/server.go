// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/identity-service/internal/config"
	"codeberg.org/oliverandrich/identity-service/internal/database"
	"codeberg.org/oliverandrich/identity-service/internal/handlers"
	"codeberg.org/oliverandrich/identity-service/internal/jobs"
	mw "codeberg.org/oliverandrich/identity-service/internal/middleware"
	"codeberg.org/oliverandrich/identity-service/internal/password"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
	"codeberg.org/oliverandrich/identity-service/internal/services/auth"
	"codeberg.org/oliverandrich/identity-service/internal/services/email"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// Repository and services
	hasher := password.NewHasher(cfg.Auth.BcryptCost)
	repo := repository.New(db, hasher)
	authService := auth.NewService(repo, hasher)

	var mailer *email.Service
	if cfg.MailEnabled() {
		mailer, err = email.NewService(&cfg.SMTP, repo, cfg.Server.BaseURL)
		if err != nil {
			return fmt.Errorf("failed to create email service: %w", err)
		}
	} else {
		slog.Info("email delivery disabled, SMTP not configured")
	}

	// Background token sweep
	sweeper, err := jobs.NewSweeper(repo, cfg.Sweep.Interval)
	if err != nil {
		return fmt.Errorf("failed to create sweeper: %w", err)
	}
	sweeper.Start()
	defer func() {
		if stopErr := sweeper.Stop(); stopErr != nil {
			slog.Error("failed to stop sweeper", "error", stopErr)
		}
	}()

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e)
	setupRoutes(e, repo, authService, mailer)

	return startWithGracefulShutdown(e, cfg)
}

func setupRoutes(e *echo.Echo, repo *repository.Repository, authService *auth.Service, mailer *email.Service) {
	h := handlers.New(repo)
	authHandler := handlers.NewAuth(authService, mailer)

	e.GET("/health", h.Health)

	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/register", authHandler.Register)
	e.GET("/auth/verify", authHandler.Verify)

	// Routes requiring a valid bearer token
	authed := e.Group("", mw.RequireToken(repo))
	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/auth/verify-request", authHandler.RequestVerification)

	// Admin-only account and token management
	admin := e.Group("", mw.RequireToken(repo), mw.RequireAdmin)
	admin.GET("/users", h.ListUsers)
	admin.POST("/users", h.CreateUser)
	admin.GET("/users/:id", h.GetUser)
	admin.PUT("/users/:id", h.UpdateUser)
	admin.DELETE("/users/:id", h.DeleteUser)
	admin.GET("/users/:id/tokens", h.ListUserTokens)
	admin.GET("/tokens", h.ListTokens)
	admin.DELETE("/tokens/:id", h.DeleteToken)
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
