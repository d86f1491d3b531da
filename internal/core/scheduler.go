package core

// scheduler.go runs background maintenance for the session store.
//
// Sessions are created on every file load and never closed explicitly by a
// browser, so the sweeper deletes sessions idle longer than the TTL. It is
// long-running and stops with its context. A failed sweep is logged and the
// next tick tries again.

import (
	"context"
	"log/slog"
	"time"
)

// SweepConfig holds settings for the idle session sweeper.
type SweepConfig struct {
	TTL           time.Duration // Idle time after which a session is deleted (default: 24h)
	CheckInterval time.Duration // How often to sweep (default: 10m)
}

func (c SweepConfig) withDefaults() SweepConfig {
	if c.TTL <= 0 {
		c.TTL = 24 * time.Hour
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 10 * time.Minute
	}
	return c
}

// StartSessionSweeper deletes idle sessions immediately and then every
// CheckInterval until ctx is cancelled.
func (s *Service) StartSessionSweeper(ctx context.Context, cfg SweepConfig) {
	cfg = cfg.withDefaults()
	slog.Info("session sweeper started",
		"ttl", cfg.TTL.String(),
		"interval", cfg.CheckInterval.String(),
	)

	s.runSweep(ctx, cfg.TTL)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep(ctx, cfg.TTL)
		}
	}
}

func (s *Service) runSweep(ctx context.Context, ttl time.Duration) {
	start := time.Now()
	n, err := s.SweepIdle(ctx, ttl)
	if err != nil {
		slog.Error("session sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("idle sessions removed",
			"sessions", n,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
