// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package jobs runs periodic maintenance work alongside the server.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"codeberg.org/oliverandrich/identity-service/internal/repository"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = time.Hour

// Sweeper deletes expired tokens on a fixed interval. The sweep runs
// independently of request handling; validity checks always compare against
// expires_at, so a login racing the sweep sees consistent results.
type Sweeper struct {
	scheduler gocron.Scheduler
	repo      *repository.Repository
	interval  time.Duration
}

// NewSweeper creates a sweeper with the given interval.
func NewSweeper(repo *repository.Repository, interval time.Duration) (*Sweeper, error) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	s := &Sweeper{
		scheduler: scheduler,
		repo:      repo,
		interval:  interval,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.Sweep, context.Background()),
		gocron.WithName("token-expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins the periodic sweep.
func (s *Sweeper) Start() {
	slog.Info("starting token sweeper", "interval", s.interval)
	s.scheduler.Start()
}

// Stop shuts the scheduler down.
func (s *Sweeper) Stop() error {
	slog.Info("stopping token sweeper")
	return s.scheduler.Shutdown()
}

// Sweep removes every token whose expiry has passed.
func (s *Sweeper) Sweep(ctx context.Context) {
	removed, err := s.repo.DeleteExpiredTokens(ctx)
	if err != nil {
		slog.Error("token sweep failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("token sweep", "removed", removed)
	}
}
