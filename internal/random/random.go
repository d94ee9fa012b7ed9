// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package random generates cryptographically secure alphanumeric strings,
// used for token secrets.
package random

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLength is returned when a non-positive length is requested.
var ErrInvalidLength = errors.New("length must be a positive number")

// SecureString returns a string of exactly length characters drawn from
// [A-Za-z0-9], sourced from crypto/rand. Random byte blocks are base64
// encoded, stripped of non-alphanumeric characters and accumulated until
// enough material exists, then truncated to the requested length.
func SecureString(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	var b strings.Builder
	b.Grow(length)

	buf := make([]byte, length)
	for b.Len() < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}

		encoded := base64.StdEncoding.EncodeToString(buf)
		for i := 0; i < len(encoded); i++ {
			if isAlphanumeric(encoded[i]) {
				b.WriteByte(encoded[i])
			}
		}
	}

	return b.String()[:length], nil
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
