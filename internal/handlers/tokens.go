// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/identity-service/internal/repository"
)

// ListTokens returns every issued token, expired or not.
func (h *Handlers) ListTokens(c echo.Context) error {
	tokens, err := h.repo.ListTokens(c.Request().Context())
	if err != nil {
		slog.Error("list tokens failed", "error", err)
		return Fail(c, http.StatusInternalServerError, "internal error")
	}
	return OK(c, http.StatusOK, tokens)
}

// ListUserTokens returns all tokens owned by one user.
func (h *Handlers) ListUserTokens(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("id")

	if _, err := h.repo.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Fail(c, http.StatusNotFound, "user not found")
		}
		slog.Error("get user failed", "error", err)
		return Fail(c, http.StatusInternalServerError, "internal error")
	}

	tokens, err := h.repo.ListTokensByUser(ctx, userID)
	if err != nil {
		slog.Error("list user tokens failed", "error", err)
		return Fail(c, http.StatusInternalServerError, "internal error")
	}
	return OK(c, http.StatusOK, tokens)
}

// DeleteToken removes one token by ID.
func (h *Handlers) DeleteToken(c echo.Context) error {
	if err := h.repo.DeleteToken(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Fail(c, http.StatusNotFound, "token not found")
		}
		slog.Error("delete token failed", "error", err)
		return Fail(c, http.StatusInternalServerError, "internal error")
	}
	return OK(c, http.StatusOK, map[string]bool{"deleted": true})
}
