// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth orchestrates credential verification and token issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"golang.org/x/crypto/bcrypt"

	"codeberg.org/oliverandrich/identity-service/internal/models"
	"codeberg.org/oliverandrich/identity-service/internal/password"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// Service authenticates users and manages token issuance.
type Service struct {
	repo   *repository.Repository
	hasher *password.Hasher
}

// NewService creates a new authentication service.
func NewService(repo *repository.Repository, hasher *password.Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// LoginParams holds the credentials and client binding for a login attempt.
type LoginParams struct {
	Email     string
	Password  string
	Device    string
	IPAddress string
}

// Login authenticates the credentials and returns an access token together
// with the public view of the user. A missing user and a wrong password both
// surface as ErrInvalidCredentials so the caller cannot distinguish them.
func (s *Service) Login(ctx context.Context, params LoginParams) (*models.Token, *models.PublicUser, error) {
	user, err := s.repo.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform a bcrypt comparison so a user
			// miss costs the same as a password mismatch.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(params.Password))
			slog.Warn("login_failed", "email", params.Email, "reason", "user_not_found")
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(params.Password, user.PasswordHash) {
		slog.Warn("login_failed", "email", params.Email, "reason", "invalid_password")
		return nil, nil, ErrInvalidCredentials
	}

	token, err := s.issueAccessToken(ctx, user.ID, params.Device, params.IPAddress)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("login_success", "user_id", user.ID, "email", params.Email)
	return token, user.Public(), nil
}

// issueAccessToken returns an existing non-expired access token for the same
// (device, ipAddress) pair, or mints a new one. Two concurrent logins from a
// brand-new device may both mint; the duplicate is redundant but harmless.
func (s *Service) issueAccessToken(ctx context.Context, userID, device, ipAddress string) (*models.Token, error) {
	tokens, err := s.repo.ListTokensByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}

	now := time.Now().UTC()
	for i := range tokens {
		t := &tokens[i]
		if t.Type == models.TokenTypeAccess && t.Matches(device, ipAddress) && !t.Expired(now) {
			return t, nil
		}
	}

	token, err := s.repo.CreateToken(ctx, userID, models.TokenTypeAccess, device, ipAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	return token, nil
}

// RegisterParams holds the fields for creating an account.
type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	OpenIDSub *string
}

// Register creates a new active user account with the role "user".
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	user, err := s.repo.CreateUser(ctx, repository.CreateUserParams{
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Email:     params.Email,
		Phone:     params.Phone,
		Password:  params.Password,
		Role:      models.RoleUser,
		Status:    models.StatusActive,
		OpenIDSub: params.OpenIDSub,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// VerifyEmail consumes a verification token. The matching user is activated
// when still inactive and the token is deleted, so each link works once.
func (s *Service) VerifyEmail(ctx context.Context, secret string) (*models.PublicUser, error) {
	token, err := s.repo.GetTokenBySecret(ctx, secret)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	if token.Type != models.TokenTypeVerification || token.Expired(time.Now().UTC()) {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Status == models.StatusInactive {
		status := models.StatusActive
		user, err = s.repo.UpdateUser(ctx, user.ID, repository.UpdateUserParams{Status: &status})
		if err != nil {
			return nil, fmt.Errorf("failed to activate user: %w", err)
		}
	}

	if err := s.repo.DeleteToken(ctx, token.ID); err != nil {
		return nil, fmt.Errorf("failed to delete token: %w", err)
	}

	slog.Info("email_verified", "user_id", user.ID, "email", user.Email)
	return user.Public(), nil
}

// ChangePassword changes a user's password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	if _, err := s.repo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		Password: &newPassword,
	}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
