// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/identity-service/internal/models"
)

func TestUser_Public(t *testing.T) {
	user := models.User{
		ID:           "id-1",
		FirstName:    "Ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$hash",
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
	}

	view := user.Public()

	assert.Equal(t, user.ID, view.ID)
	assert.Equal(t, user.Email, view.Email)
	assert.Equal(t, user.Role, view.Role)
}

func TestUser_JSONNeverContainsHash(t *testing.T) {
	user := models.User{ID: "id-1", PasswordHash: "$2a$10$hash"}

	for _, v := range []any{user, user.Public()} {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "$2a$10$hash")
	}
}
