// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"

	"codeberg.org/oliverandrich/identity-service/internal/database"
	"codeberg.org/oliverandrich/identity-service/internal/models"
	"codeberg.org/oliverandrich/identity-service/internal/password"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
)

// NewHasher returns a hasher with bcrypt's minimum cost to keep tests fast.
func NewHasher() *password.Hasher {
	return password.NewHasher(bcrypt.MinCost)
}

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db, NewHasher())
	return db, repo
}

// NewTestUser creates a test user in the database.
func NewTestUser(t *testing.T, repo *repository.Repository, email, plaintext string) *models.User {
	t.Helper()
	ctx := context.Background()
	user, err := repo.CreateUser(ctx, repository.CreateUserParams{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Phone:     "555-0100",
		Password:  plaintext,
	})
	require.NoError(t, err)
	return user
}

// NewTestToken creates an access token for a user.
func NewTestToken(t *testing.T, repo *repository.Repository, userID, device, ipAddress string) *models.Token {
	t.Helper()
	ctx := context.Background()
	token, err := repo.CreateToken(ctx, userID, models.TokenTypeAccess, device, ipAddress)
	require.NoError(t, err)
	return token
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
