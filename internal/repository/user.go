// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"codeberg.org/oliverandrich/identity-service/internal/models"
)

// UserField is a closed set of columns permitted for equality lookups. The
// field name is mapped to a fixed column, never interpolated from caller
// input.
type UserField string

const (
	UserFieldEmail     UserField = "email"
	UserFieldPhone     UserField = "phone"
	UserFieldOpenIDSub UserField = "openid_sub"
)

// ErrUnknownField is returned when a lookup names a field outside the
// permitted set.
var ErrUnknownField = fmt.Errorf("unknown user lookup field")

func (f UserField) column() (string, error) {
	switch f {
	case UserFieldEmail:
		return "email", nil
	case UserFieldPhone:
		return "phone", nil
	case UserFieldOpenIDSub:
		return "openid_sub", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, string(f))
}

// CreateUserParams holds the fields for creating a user. Password is the
// plaintext; it is hashed before the row is written.
type CreateUserParams struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Role      models.Role
	Status    models.Status
	OpenIDSub *string
}

// CreateUser creates a new user. The password is hashed exactly once here.
func (r *Repository) CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error) {
	hash, err := r.hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	if params.Role == "" {
		params.Role = models.RoleUser
	}
	if params.Status == "" {
		params.Status = models.StatusActive
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        params.Email,
		Phone:        params.Phone,
		PasswordHash: hash,
		Role:         params.Role,
		Status:       params.Status,
		OpenIDSub:    params.OpenIDSub,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, first_name, last_name, email, phone, password, role, status, openid_sub, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.FirstName, user.LastName, user.Email, user.Phone,
		user.PasswordHash, user.Role, user.Status, user.OpenIDSub,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByField retrieves a user by equality on one of the permitted lookup
// fields.
func (r *Repository) GetUserByField(ctx context.Context, field UserField, value string) (*models.User, error) {
	column, err := field.column()
	if err != nil {
		return nil, err
	}

	var user models.User
	query := fmt.Sprintf(`SELECT * FROM users WHERE %s = ?`, column)
	if err := r.db.GetContext(ctx, &user, query, value); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.GetUserByField(ctx, UserFieldEmail, email)
}

// GetUserByToken retrieves the owner of a token secret. It succeeds only if
// the token exists and has not expired; an expired row is invisible here
// even when it is still present in the store.
func (r *Repository) GetUserByToken(ctx context.Context, secret string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT users.* FROM users
		 INNER JOIN tokens ON users.id = tokens.user_id
		 WHERE tokens.secret = ? AND tokens.expires_at > ?`,
		secret, time.Now().UTC())
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// ListUsers returns all users ordered by creation date (newest first).
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY created_at DESC`); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserParams holds the optional fields for a partial user update. Nil
// fields are left unchanged.
type UpdateUserParams struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Password  *string
	Role      *models.Role
	Status    *models.Status
	OpenIDSub *string
}

// UpdateUser merges the provided fields into the stored user and persists
// the result. A supplied password is re-hashed only when it does not already
// verify against the stored hash, so updating with the same plaintext leaves
// the hash untouched.
func (r *Repository) UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*models.User, error) {
	user, err := r.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}
	if params.Email != nil {
		user.Email = *params.Email
	}
	if params.Phone != nil {
		user.Phone = *params.Phone
	}
	if params.Role != nil {
		user.Role = *params.Role
	}
	if params.Status != nil {
		user.Status = *params.Status
	}
	if params.OpenIDSub != nil {
		user.OpenIDSub = params.OpenIDSub
	}
	if params.Password != nil && !r.hasher.Verify(*params.Password, user.PasswordHash) {
		hash, hashErr := r.hasher.Hash(*params.Password)
		if hashErr != nil {
			return nil, hashErr
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, email = ?, phone = ?, password = ?, role = ?, status = ?, openid_sub = ?, updated_at = ?
		 WHERE id = ?`,
		user.FirstName, user.LastName, user.Email, user.Phone,
		user.PasswordHash, user.Role, user.Status, user.OpenIDSub,
		user.UpdatedAt, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

// DeleteUser deletes a user by their ID. Returns ErrNotFound when no row was
// removed.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether the error is a SQLite unique constraint
// failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
