// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/identity-service/internal/middleware"
	"codeberg.org/oliverandrich/identity-service/internal/services/auth"
	"codeberg.org/oliverandrich/identity-service/internal/services/email"
)

// failLoginMessage is the single message for every credential failure. A
// missing user and a wrong password are indistinguishable to the client.
const failLoginMessage = "Invalid email or password"

// AuthHandlers contains handlers for authentication.
type AuthHandlers struct {
	service *auth.Service
	mailer  *email.Service // nil when SMTP is not configured
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(service *auth.Service, mailer *email.Service) *AuthHandlers {
	return &AuthHandlers{service: service, mailer: mailer}
}

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the success payload for a login.
type LoginResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// Login authenticates the posted credentials and returns a bearer token
// bound to the caller's device and IP address.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" {
		return Fail(c, http.StatusBadRequest, "email is required")
	}
	if req.Password == "" {
		return Fail(c, http.StatusBadRequest, "password is required")
	}

	token, user, err := h.service.Login(c.Request().Context(), auth.LoginParams{
		Email:     req.Email,
		Password:  req.Password,
		Device:    deviceID(c),
		IPAddress: c.RealIP(),
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return Fail(c, http.StatusBadRequest, failLoginMessage)
		}
		slog.Error("login failed", "error", err)
		return Fail(c, http.StatusInternalServerError, "internal error")
	}

	return OK(c, http.StatusOK, LoginResponse{Token: token.Secret, User: user})
}

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// Register creates a new active account with the role "user".
func (h *AuthHandlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" {
		return Fail(c, http.StatusBadRequest, "email is required")
	}
	if req.Password == "" {
		return Fail(c, http.StatusBadRequest, "password is required")
	}

	user, err := h.service.Register(c.Request().Context(), auth.RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmail):
			return Fail(c, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, auth.ErrUserExists):
			return Fail(c, http.StatusConflict, "email already in use")
		}
		slog.Error("register failed", "error", err)
		return Fail(c, http.StatusInternalServerError, "internal error")
	}

	return OK(c, http.StatusCreated, user.Public())
}

// Me returns the public view of the authenticated user.
func (h *AuthHandlers) Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return Fail(c, http.StatusUnauthorized, "authentication required")
	}
	return OK(c, http.StatusOK, user.Public())
}

// Verify consumes a verification token from the mailed link and activates
// the account.
func (h *AuthHandlers) Verify(c echo.Context) error {
	secret := c.QueryParam("token")
	if secret == "" {
		return Fail(c, http.StatusBadRequest, "token is required")
	}

	user, err := h.service.VerifyEmail(c.Request().Context(), secret)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return Fail(c, http.StatusBadRequest, "invalid or expired token")
		}
		slog.Error("verification failed", "error", err)
		return Fail(c, http.StatusInternalServerError, "internal error")
	}

	return OK(c, http.StatusOK, user)
}

// RequestVerification issues a verification token for the authenticated user
// and mails the verification link.
func (h *AuthHandlers) RequestVerification(c echo.Context) error {
	if h.mailer == nil {
		return Fail(c, http.StatusServiceUnavailable, "email delivery is not configured")
	}

	user := middleware.CurrentUser(c)
	_, err := h.mailer.SendVerification(c.Request().Context(), user, deviceID(c), c.RealIP())
	if err != nil {
		slog.Error("verification mail failed", "error", err, "user_id", user.ID)
		return Fail(c, http.StatusInternalServerError, "internal error")
	}

	return OK(c, http.StatusAccepted, map[string]string{"email": user.Email})
}

// deviceID derives the opaque device identifier for token binding. Clients
// send X-Device-Id; the User-Agent is the fallback.
func deviceID(c echo.Context) string {
	if id := c.Request().Header.Get("X-Device-Id"); id != "" {
		return id
	}
	return c.Request().UserAgent()
}
