package service

import (
	"context"
	"log/slog"
	"time"
)

// CleanupSweeper periodically purges expired verification codes. Failures
// are logged and the loop keeps running; it stops when ctx is cancelled.
type CleanupSweeper struct {
	verification *VerificationService
	interval     time.Duration
	logger       *slog.Logger
}

func NewCleanupSweeper(verification *VerificationService, interval time.Duration, logger *slog.Logger) *CleanupSweeper {
	return &CleanupSweeper{
		verification: verification,
		interval:     interval,
		logger:       logger,
	}
}

func (s *CleanupSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "verification cleanup sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "verification cleanup sweeper stopped")
			return
		case <-ticker.C:
			deleted, err := s.verification.CleanupExpired(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "verification cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				s.logger.InfoContext(ctx, "expired verification codes removed", "count", deleted)
			}
		}
	}
}
