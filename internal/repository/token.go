// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"codeberg.org/oliverandrich/identity-service/internal/models"
	"codeberg.org/oliverandrich/identity-service/internal/random"
)

// CreateToken mints a new token for the given user. The secret is generated
// here and returned exactly once as part of the entity; expiry defaults to
// models.TokenValidity after creation.
func (r *Repository) CreateToken(ctx context.Context, userID string, typ models.TokenType, device, ipAddress string) (*models.Token, error) {
	secret, err := random.SecureString(models.TokenSecretLength)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	token := &models.Token{
		ID:        uuid.NewString(),
		UserID:    userID,
		Secret:    secret,
		Type:      typ,
		Device:    device,
		IPAddress: ipAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(models.TokenValidity),
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO tokens (id, user_id, secret, type, device, ip_address, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		token.ID, token.UserID, token.Secret, token.Type,
		token.Device, token.IPAddress, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		return nil, err
	}

	return token, nil
}

// GetTokenByID retrieves a token by its ID.
func (r *Repository) GetTokenByID(ctx context.Context, id string) (*models.Token, error) {
	var token models.Token
	if err := r.db.GetContext(ctx, &token, `SELECT * FROM tokens WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// GetTokenBySecret retrieves a token by its secret.
func (r *Repository) GetTokenBySecret(ctx context.Context, secret string) (*models.Token, error) {
	var token models.Token
	if err := r.db.GetContext(ctx, &token, `SELECT * FROM tokens WHERE secret = ?`, secret); err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// ListTokensByUser returns all tokens owned by the user, expired or not.
// Callers filter for validity.
func (r *Repository) ListTokensByUser(ctx context.Context, userID string) ([]models.Token, error) {
	var tokens []models.Token
	if err := r.db.SelectContext(ctx, &tokens, `SELECT * FROM tokens WHERE user_id = ?`, userID); err != nil {
		return nil, err
	}
	return tokens, nil
}

// ListTokens returns all tokens.
func (r *Repository) ListTokens(ctx context.Context) ([]models.Token, error) {
	var tokens []models.Token
	if err := r.db.SelectContext(ctx, &tokens, `SELECT * FROM tokens`); err != nil {
		return nil, err
	}
	return tokens, nil
}

// UpdateTokenParams holds the optional fields for a partial token update.
// The secret is immutable and deliberately absent.
type UpdateTokenParams struct {
	Type      *models.TokenType
	Device    *string
	IPAddress *string
	ExpiresAt *time.Time
}

// UpdateToken merges the provided fields and persists the result. Returns
// ErrNotFound when the id is unknown.
func (r *Repository) UpdateToken(ctx context.Context, id string, params UpdateTokenParams) (*models.Token, error) {
	token, err := r.GetTokenByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Type != nil {
		token.Type = *params.Type
	}
	if params.Device != nil {
		token.Device = *params.Device
	}
	if params.IPAddress != nil {
		token.IPAddress = *params.IPAddress
	}
	if params.ExpiresAt != nil {
		token.ExpiresAt = *params.ExpiresAt
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE tokens SET type = ?, device = ?, ip_address = ?, expires_at = ? WHERE id = ?`,
		token.Type, token.Device, token.IPAddress, token.ExpiresAt, token.ID)
	if err != nil {
		return nil, err
	}

	return token, nil
}

// DeleteToken deletes a token by its ID. Returns ErrNotFound when no row was
// removed.
func (r *Repository) DeleteToken(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = ?`, id)
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

// DeleteExpiredTokens deletes every token whose expiry is strictly before
// now and reports how many rows were removed. Runs as periodic maintenance,
// independent of request handling.
func (r *Repository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
