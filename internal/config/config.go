// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
	Sweep    SweepConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host    string
	Port    int
	BaseURL string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type AuthConfig struct {
	BcryptCost int
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type SweepConfig struct {
	Interval time.Duration
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:    cmd.String("host"),
			Port:    int(cmd.Int("port")),
			BaseURL: cmd.String("base-url"),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		Auth: AuthConfig{
			BcryptCost: int(cmd.Int("bcrypt-cost")),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
		},
		Sweep: SweepConfig{
			Interval: cmd.Duration("sweep-interval"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	return cfg
}

// MailEnabled reports whether enough SMTP settings are present to send
// verification emails.
func (c *Config) MailEnabled() bool {
	return c.SMTP.Host != "" && c.SMTP.From != ""
}
