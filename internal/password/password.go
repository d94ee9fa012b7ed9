// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package password wraps bcrypt hashing and verification for stored
// credentials.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches bcrypt's default of 10 rounds.
const DefaultCost = bcrypt.DefaultCost

// Hasher hashes and verifies passwords with a configurable bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. Costs outside bcrypt's valid range fall back
// to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the salted bcrypt hash of the plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether the plaintext matches the stored hash. The bcrypt
// comparison is constant time per byte.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
