package notify

import (
	"context"
	"log/slog"
	"time"
)

// TokenPurger deletes capability tokens that expired at or before now.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically removes expired capability tokens.
type Sweeper struct {
	purger   TokenPurger
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSweeper creates a Sweeper that runs every interval.
func NewSweeper(purger TokenPurger, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{purger: purger, interval: interval, logger: logger, now: time.Now}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("token sweeper disabled")
		return
	}
	s.logger.Info("token sweeper started", "interval", s.interval)

	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep purges expired tokens once and returns how many were removed.
// Errors are logged; the next tick retries.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := s.purger.PurgeExpiredTokens(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("token sweep failed", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.logger.Info("purged expired tokens", "count", n)
	}
	return n
}
