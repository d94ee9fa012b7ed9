// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/identity-service/internal/handlers"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
	"codeberg.org/oliverandrich/identity-service/internal/testutil"
)

func newHandlers(t *testing.T) (*handlers.Handlers, *repository.Repository) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	return handlers.New(repo), repo
}

func TestListUsers(t *testing.T) {
	h, repo := newHandlers(t)
	testutil.NewTestUser(t, repo, "a@example.com", "secret")
	testutil.NewTestUser(t, repo, "b@example.com", "secret")

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/users", nil)

	require.NoError(t, h.ListUsers(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec.Body.String())
	users := envelope["data"].([]any)
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.NotContains(t, u.(map[string]any), "password")
	}
}

func TestGetUser_NotFound(t *testing.T) {
	h, _ := newHandlers(t)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/users/:id", nil)
	c.SetParamNames("id")
	c.SetParamValues("no-such-id")

	require.NoError(t, h.GetUser(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUser_WithRole(t *testing.T) {
	h, _ := newHandlers(t)

	e := echo.New()
	body := `{"firstName":"Grace","email":"grace@example.com","password":"secret","role":"admin","status":"active"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/users", strings.NewReader(body))

	require.NoError(t, h.CreateUser(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec.Body.String())
	user := envelope["data"].(map[string]any)
	assert.Equal(t, "admin", user["role"])
}

func TestUpdateUser(t *testing.T) {
	h, repo := newHandlers(t)
	created := testutil.NewTestUser(t, repo, "ada@example.com", "secret")

	e := echo.New()
	body := `{"phone":"555-0199"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPut, "/users/:id", strings.NewReader(body))
	c.SetParamNames("id")
	c.SetParamValues(created.ID)

	require.NoError(t, h.UpdateUser(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec.Body.String())
	user := envelope["data"].(map[string]any)
	assert.Equal(t, "555-0199", user["phone"])
	assert.Equal(t, "ada@example.com", user["email"])
}

func TestDeleteUser(t *testing.T) {
	h, repo := newHandlers(t)
	created := testutil.NewTestUser(t, repo, "ada@example.com", "secret")

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodDelete, "/users/:id", nil)
	c.SetParamNames("id")
	c.SetParamValues(created.ID)

	require.NoError(t, h.DeleteUser(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err := repo.GetUserByID(c.Request().Context(), created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListUserTokens(t *testing.T) {
	h, repo := newHandlers(t)
	user := testutil.NewTestUser(t, repo, "ada@example.com", "secret")
	testutil.NewTestToken(t, repo, user.ID, "laptop", "10.0.0.1")

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/users/:id/tokens", nil)
	c.SetParamNames("id")
	c.SetParamValues(user.ID)

	require.NoError(t, h.ListUserTokens(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec.Body.String())
	tokens := envelope["data"].([]any)
	assert.Len(t, tokens, 1)
}

func TestDeleteToken_NotFound(t *testing.T) {
	h, _ := newHandlers(t)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodDelete, "/tokens/:id", nil)
	c.SetParamNames("id")
	c.SetParamValues("no-such-id")

	require.NoError(t, h.DeleteToken(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
