// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware provides echo middleware for bearer-token auth.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/identity-service/internal/models"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
)

// userContextKey is the echo context key the authenticated user is stored
// under.
const userContextKey = "auth.user"

// CurrentUser returns the authenticated user stored by RequireToken, or nil.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}

// RequireToken resolves the bearer token from the Authorization header to
// its owner. Expired tokens are rejected even when still present in the
// store.
func RequireToken(repo *repository.Repository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			secret := bearerToken(c)
			if secret == "" {
				return unauthorized(c)
			}

			user, err := repo.GetUserByToken(c.Request().Context(), secret)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return unauthorized(c)
				}
				slog.Error("token lookup failed", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError)
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// RequireAdmin rejects requests whose authenticated user is not an admin.
// Must run after RequireToken.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil || user.Role != models.RoleAdmin {
			return c.JSON(http.StatusForbidden, map[string]any{
				"success": false,
				"message": "forbidden",
			})
		}
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]any{
		"success": false,
		"message": "invalid or expired token",
	})
}
