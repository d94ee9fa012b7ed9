// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package repository implements the user and token stores on top of SQLite.
package repository

import (
	"database/sql"
	"errors"

	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/identity-service/internal/password"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// ErrEmailTaken is returned when a create or update collides with the unique
// email constraint.
var ErrEmailTaken = errors.New("email already in use")

// Repository wraps the database handle for all store operations. The hasher
// is injected so the user store can hash passwords before persisting them.
type Repository struct {
	db     *sqlx.DB
	hasher *password.Hasher
}

// New creates a new Repository instance.
func New(db *sqlx.DB, hasher *password.Hasher) *Repository {
	return &Repository{db: db, hasher: hasher}
}

// DB returns the underlying database handle for direct access.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// wrapError converts driver errors to repository errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
