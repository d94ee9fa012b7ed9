// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/identity-service/internal/models"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
)

// ListUsers returns the public views of all users.
func (h *Handlers) ListUsers(c echo.Context) error {
	users, err := h.repo.ListUsers(c.Request().Context())
	if err != nil {
		slog.Error("list users failed", "error", err)
		return Fail(c, http.StatusInternalServerError, "internal error")
	}

	views := make([]*models.PublicUser, len(users))
	for i := range users {
		views[i] = users[i].Public()
	}
	return OK(c, http.StatusOK, views)
}

// GetUser returns the public view of one user.
func (h *Handlers) GetUser(c echo.Context) error {
	user, err := h.repo.GetUserByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Fail(c, http.StatusNotFound, "user not found")
		}
		slog.Error("get user failed", "error", err)
		return Fail(c, http.StatusInternalServerError, "internal error")
	}
	return OK(c, http.StatusOK, user.Public())
}

// CreateUserRequest is the admin request body for creating a user.
type CreateUserRequest struct {
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone"`
	Password  string        `json:"password"`
	Role      models.Role   `json:"role"`
	Status    models.Status `json:"status"`
	OpenIDSub *string       `json:"openIdSub"`
}

// CreateUser creates a user with an explicit role and status.
func (h *Handlers) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" {
		return Fail(c, http.StatusBadRequest, "email is required")
	}
	if req.Password == "" {
		return Fail(c, http.StatusBadRequest, "password is required")
	}

	user, err := h.repo.CreateUser(c.Request().Context(), repository.CreateUserParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		Role:      req.Role,
		Status:    req.Status,
		OpenIDSub: req.OpenIDSub,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return Fail(c, http.StatusConflict, "email already in use")
		}
		slog.Error("create user failed", "error", err)
		return Fail(c, http.StatusInternalServerError, "internal error")
	}

	return OK(c, http.StatusCreated, user.Public())
}

// UpdateUserRequest is the request body for a partial user update. Absent
// fields are left unchanged.
type UpdateUserRequest struct {
	FirstName *string        `json:"firstName"`
	LastName  *string        `json:"lastName"`
	Email     *string        `json:"email"`
	Phone     *string        `json:"phone"`
	Password  *string        `json:"password"`
	Role      *models.Role   `json:"role"`
	Status    *models.Status `json:"status"`
	OpenIDSub *string        `json:"openIdSub"`
}

// UpdateUser merges the provided fields into the stored user.
func (h *Handlers) UpdateUser(c echo.Context) error {
	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}

	user, err := h.repo.UpdateUser(c.Request().Context(), c.Param("id"), repository.UpdateUserParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		Role:      req.Role,
		Status:    req.Status,
		OpenIDSub: req.OpenIDSub,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return Fail(c, http.StatusNotFound, "user not found")
		case errors.Is(err, repository.ErrEmailTaken):
			return Fail(c, http.StatusConflict, "email already in use")
		}
		slog.Error("update user failed", "error", err)
		return Fail(c, http.StatusInternalServerError, "internal error")
	}

	return OK(c, http.StatusOK, user.Public())
}

// DeleteUser removes a user and, through the foreign key, their tokens.
func (h *Handlers) DeleteUser(c echo.Context) error {
	if err := h.repo.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Fail(c, http.StatusNotFound, "user not found")
		}
		slog.Error("delete user failed", "error", err)
		return Fail(c, http.StatusInternalServerError, "internal error")
	}
	return OK(c, http.StatusOK, map[string]bool{"deleted": true})
}
