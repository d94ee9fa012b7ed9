// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email issues verification tokens and delivers them over SMTP.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"codeberg.org/oliverandrich/identity-service/internal/config"
	"codeberg.org/oliverandrich/identity-service/internal/models"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
)

// Service handles verification token issuance and email delivery.
type Service struct {
	cfg     *config.SMTPConfig
	repo    *repository.Repository
	baseURL string
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig, repo *repository.Repository, baseURL string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{
		cfg:     cfg,
		repo:    repo,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// SendVerification issues a verification token for the user and mails the
// verification link. The token goes through the regular token store, so the
// expiry sweep covers it like any other token.
func (s *Service) SendVerification(ctx context.Context, user *models.User, device, ipAddress string) (*models.Token, error) {
	token, err := s.repo.CreateToken(ctx, user.ID, models.TokenTypeVerification, device, ipAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification token: %w", err)
	}

	verifyURL := fmt.Sprintf("%s/auth/verify?token=%s", s.baseURL, token.Secret)
	subject := "Verify your email address"
	body := fmt.Sprintf("Hello %s,\n\nplease verify your email address by opening the link below:\n\n%s\n", user.FirstName, verifyURL)

	if err := s.send(user.Email, subject, body); err != nil {
		return nil, err
	}

	return token, nil
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
