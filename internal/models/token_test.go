// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"codeberg.org/oliverandrich/identity-service/internal/models"
)

func TestToken_Expired(t *testing.T) {
	now := time.Now().UTC()
	token := models.Token{ExpiresAt: now.Add(time.Hour)}

	assert.False(t, token.Expired(now))
	assert.True(t, token.Expired(now.Add(2*time.Hour)))
	// Exactly at expiry counts as expired
	assert.True(t, token.Expired(token.ExpiresAt))
}

func TestToken_Matches(t *testing.T) {
	token := models.Token{Device: "laptop", IPAddress: "10.0.0.1"}

	assert.True(t, token.Matches("laptop", "10.0.0.1"))
	assert.False(t, token.Matches("laptop", "10.0.0.2"))
	assert.False(t, token.Matches("phone", "10.0.0.1"))
}
