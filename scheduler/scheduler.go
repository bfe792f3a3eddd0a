// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic jobs of the server: rankings refresh and
// sweeping expired selections and login flows.
type Scheduler struct {
	c    *cron.Cron
	jobs []string
}

func New() *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		c: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Every runs fn every interval. A run still going when the next one is due
// makes that next one skip.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive, got %s", name, interval)
	}
	_, err := s.c.AddFunc("@every "+interval.String(), fn)
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	s.jobs = append(s.jobs, name)
	return nil
}

// Cron adds fn on a standard 5-field schedule
func (s *Scheduler) Cron(name, spec string, fn func()) error {
	if _, err := s.c.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	s.jobs = append(s.jobs, name)
	return nil
}

func (s *Scheduler) Start() {
	slog.Info("Starting scheduler", "jobs", s.jobs)
	s.c.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("scheduler stopped before running jobs finished")
	}
}

// Jobs lists the scheduled job names
func (s *Scheduler) Jobs() []string {
	return s.jobs
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
