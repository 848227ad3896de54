// internal/tweets/syncer.go
package tweets

import (
	"context"
	"errors"
	"log/slog"
	"time"

	custom_errors "chapter-ingest/internal/errors"
)

// Syncer periodically fetches the latest tweet through the same cooldown gate
// as manual fetches.
type Syncer struct {
	service  *Service
	logger   *slog.Logger
	interval time.Duration
}

func NewSyncer(service *Service, logger *slog.Logger, interval time.Duration) *Syncer {
	return &Syncer{
		service:  service,
		logger:   logger,
		interval: interval,
	}
}

// Start runs a fetch immediately and then on every tick until ctx is canceled.
func (s *Syncer) Start(ctx context.Context) {
	s.logger.Info("Starting tweet syncer", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx) // Initial fetch

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("Tweet syncer shutting down", "reason", ctx.Err())
			return
		}
	}
}

func (s *Syncer) runOnce(ctx context.Context) {
	outcome, err := s.service.FetchLatest(ctx, nil)
	switch {
	case err == nil:
		s.logger.Info("Automatic tweet fetch finished", "inserted", outcome.Inserted, "fetched_at", outcome.FetchedAt)
	case custom_errors.IsDenied(err):
		s.logger.Info("Automatic tweet fetch skipped", "reason", err)
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Error("Automatic tweet fetch failed", "error", err)
	}
}
