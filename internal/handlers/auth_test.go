// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/identity-service/internal/handlers"
	"codeberg.org/oliverandrich/identity-service/internal/models"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
	"codeberg.org/oliverandrich/identity-service/internal/services/auth"
	"codeberg.org/oliverandrich/identity-service/internal/testutil"
)

func newAuthHandler(t *testing.T) (*handlers.AuthHandlers, *repository.Repository) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	service := auth.NewService(repo, testutil.NewHasher())
	return handlers.NewAuth(service, nil), repo
}

func decodeEnvelope(t *testing.T, body string) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &envelope))
	return envelope
}

func TestLogin_Success(t *testing.T) {
	handler, repo := newAuthHandler(t)
	testutil.NewTestUser(t, repo, "ada@example.com", "secret")

	e := echo.New()
	body := `{"email":"ada@example.com","password":"secret"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/login", strings.NewReader(body))
	c.Request().Header.Set("X-Device-Id", "laptop")

	require.NoError(t, handler.Login(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec.Body.String())
	assert.Equal(t, true, envelope["success"])

	data := envelope["data"].(map[string]any)
	token := data["token"].(string)
	assert.Len(t, token, 64)

	user := data["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "password")
}

func TestLogin_MissingFields(t *testing.T) {
	handler, _ := newAuthHandler(t)
	e := echo.New()

	for _, body := range []string{
		`{"password":"secret"}`,
		`{"email":"ada@example.com"}`,
		`{}`,
	} {
		c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/login", strings.NewReader(body))

		require.NoError(t, handler.Login(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		envelope := decodeEnvelope(t, rec.Body.String())
		assert.Equal(t, false, envelope["success"])
	}
}

func TestLogin_FailuresShareOneMessage(t *testing.T) {
	handler, repo := newAuthHandler(t)
	testutil.NewTestUser(t, repo, "ada@example.com", "secret")

	e := echo.New()

	responses := make([]map[string]any, 0, 2)
	codes := make([]int, 0, 2)
	for _, body := range []string{
		`{"email":"ada@example.com","password":"wrong"}`,
		`{"email":"nobody@example.com","password":"secret"}`,
	} {
		c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/login", strings.NewReader(body))

		require.NoError(t, handler.Login(c))

		codes = append(codes, rec.Code)
		responses = append(responses, decodeEnvelope(t, rec.Body.String()))
	}

	// Wrong password and unknown email are indistinguishable
	assert.Equal(t, codes[0], codes[1])
	assert.Equal(t, http.StatusBadRequest, codes[0])
	assert.Equal(t, responses[0]["message"], responses[1]["message"])
	assert.Equal(t, "Invalid email or password", responses[0]["message"])
}

func TestLogin_ReuseAcrossRequests(t *testing.T) {
	handler, repo := newAuthHandler(t)
	testutil.NewTestUser(t, repo, "ada@example.com", "secret")

	e := echo.New()
	body := `{"email":"ada@example.com","password":"secret"}`

	tokens := make([]string, 0, 2)
	for range 2 {
		c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/login", strings.NewReader(body))
		c.Request().Header.Set("X-Device-Id", "laptop")

		require.NoError(t, handler.Login(c))
		require.Equal(t, http.StatusOK, rec.Code)

		envelope := decodeEnvelope(t, rec.Body.String())
		data := envelope["data"].(map[string]any)
		tokens = append(tokens, data["token"].(string))
	}

	assert.Equal(t, tokens[0], tokens[1])
}

func TestRegister_Success(t *testing.T) {
	handler, _ := newAuthHandler(t)

	e := echo.New()
	body := `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","phone":"555-0101","password":"secret"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/register", strings.NewReader(body))

	require.NoError(t, handler.Register(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec.Body.String())
	user := envelope["data"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "password")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	handler, repo := newAuthHandler(t)
	testutil.NewTestUser(t, repo, "ada@example.com", "secret")

	e := echo.New()
	body := `{"email":"ada@example.com","password":"secret"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/register", strings.NewReader(body))

	require.NoError(t, handler.Register(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestVerify(t *testing.T) {
	handler, repo := newAuthHandler(t)
	user := testutil.NewTestUser(t, repo, "ada@example.com", "secret")

	ctx := context.Background()
	token, err := repo.CreateToken(ctx, user.ID, models.TokenTypeVerification, "laptop", "10.0.0.1")
	require.NoError(t, err)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/auth/verify?token="+token.Secret, nil)

	require.NoError(t, handler.Verify(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Consumed: a second attempt fails
	c, rec = testutil.NewEchoContext(e, http.MethodGet, "/auth/verify?token="+token.Secret, nil)
	require.NoError(t, handler.Verify(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerify_MissingToken(t *testing.T) {
	handler, _ := newAuthHandler(t)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/auth/verify", nil)

	require.NoError(t, handler.Verify(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestVerification_MailerNotConfigured(t *testing.T) {
	handler, _ := newAuthHandler(t)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/verify-request", nil)

	require.NoError(t, handler.RequestVerification(c))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
