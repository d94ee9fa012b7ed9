// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/identity-service/internal/server"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// sources creates a value source chain combining env vars and TOML config
func sources(envKey, tomlKey string, tomlSrc altsrc.Sourcer) cli.ValueSourceChain {
	chain := cli.EnvVars(envKey)
	chain.Chain = append(chain.Chain, toml.TOML(tomlKey, tomlSrc))
	return chain
}

func main() {
	var configFile string

	tomlSrc := altsrc.NewStringPtrSourcer(&configFile)

	cmd := &cli.Command{
		Name:    "identity-service",
		Usage:   "Identity backend issuing device-bound bearer tokens",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags: []cli.Flag{
			// Config file
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Value:       "config.toml",
				Usage:       "Path to configuration file",
				Destination: &configFile,
				Sources:     cli.EnvVars("CONFIG"),
			},

			// Server settings
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "Server host",
				Sources: sources("HOST", "server.host", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "Server port",
				Sources: sources("PORT", "server.port", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Base URL for links in outgoing mail",
				Sources: sources("BASE_URL", "server.base_url", tomlSrc),
			},

			// Database
			&cli.StringFlag{
				Name:    "database-dsn",
				Value:   "./data/identity.db",
				Usage:   "SQLite database path",
				Sources: sources("DATABASE_DSN", "database.dsn", tomlSrc),
			},

			// Authentication
			&cli.IntFlag{
				Name:    "bcrypt-cost",
				Value:   10,
				Usage:   "bcrypt cost factor for password hashing",
				Sources: sources("BCRYPT_COST", "auth.bcrypt_cost", tomlSrc),
			},

			// Token maintenance
			&cli.DurationFlag{
				Name:    "sweep-interval",
				Value:   time.Hour,
				Usage:   "Interval between expired-token sweeps",
				Sources: sources("SWEEP_INTERVAL", "sweep.interval", tomlSrc),
			},

			// SMTP
			&cli.StringFlag{
				Name:    "smtp-host",
				Usage:   "SMTP server host (empty disables mail)",
				Sources: sources("SMTP_HOST", "smtp.host", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "smtp-port",
				Value:   587,
				Usage:   "SMTP server port",
				Sources: sources("SMTP_PORT", "smtp.port", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-username",
				Usage:   "SMTP username",
				Sources: sources("SMTP_USERNAME", "smtp.username", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-password",
				Usage:   "SMTP password",
				Sources: sources("SMTP_PASSWORD", "smtp.password", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-from",
				Usage:   "From address for outgoing mail",
				Sources: sources("SMTP_FROM", "smtp.from", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-from-name",
				Usage:   "Display name for outgoing mail",
				Sources: sources("SMTP_FROM_NAME", "smtp.from_name", tomlSrc),
			},

			// Logging
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level: debug, info, warn, error",
				Sources: sources("LOG_LEVEL", "log.level", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "Log format: text, json",
				Sources: sources("LOG_FORMAT", "log.format", tomlSrc),
			},
		},
		Action: server.Run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
