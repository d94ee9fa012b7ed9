// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

// TokenType distinguishes bearer access tokens from one-shot verification
// tokens.
type TokenType string

const (
	TokenTypeAccess       TokenType = "access"
	TokenTypeVerification TokenType = "verification"
)

const (
	// TokenSecretLength is the fixed length of every token secret.
	TokenSecretLength = 64
	// TokenValidity is the default window between issue and expiry.
	TokenValidity = 30 * 24 * time.Hour
)

// Token is an issued credential bound to the (device, ipAddress) pair it was
// requested from. The secret is generated once at creation and never changes.
type Token struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Secret    string    `db:"secret" json:"token"`
	Type      TokenType `db:"type" json:"type"`
	Device    string    `db:"device" json:"device"`
	IPAddress string    `db:"ip_address" json:"ipAddress"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
}

// Expired reports whether the token is no longer valid at the given instant.
func (t *Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// Matches reports whether the token was issued for the same device and
// network address.
func (t *Token) Matches(device, ipAddress string) bool {
	return t.Device == device && t.IPAddress == ipAddress
}
