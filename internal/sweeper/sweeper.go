// Package sweeper expires challenges that were never answered. Pending
// challenges older than the configured TTL are moved to the expired state in
// periodic sweeps, each batch processed by a small worker pool.
package sweeper

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"dareduel/internal/microservices/http-api/service"
)

const batchSize = 200

type Sweeper struct {
	challenges service.ChallengeService
	pendingTTL time.Duration
	period     time.Duration
	workers    int
	logger     *slog.Logger
}

func New(challenges service.ChallengeService, pendingTTL, period time.Duration, workers int, logger *slog.Logger) *Sweeper {
	if workers < 1 {
		workers = 1
	}
	return &Sweeper{
		challenges: challenges,
		pendingTTL: pendingTTL,
		period:     period,
		workers:    workers,
		logger:     logger,
	}
}

// Run sweeps on a fixed period until ctx is cancelled. One sweep runs
// immediately on startup so a restart never delays expiry by a full period.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("challenge sweeper started", "period", s.period, "pending_ttl", s.pendingTTL, "workers", s.workers)

	s.Sweep(ctx)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			s.logger.Info("challenge sweeper stopped")
			return
		}
	}
}

// Sweep expires every stale pending challenge, batch by batch, and returns
// how many were expired.
func (s *Sweeper) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-s.pendingTTL)
	expired := 0

	for {
		stale, err := s.challenges.StalePending(ctx, cutoff, batchSize)
		if err != nil {
			s.logger.Error("could not list stale challenges", "error", err)
			return expired
		}
		if len(stale) == 0 {
			break
		}

		var done atomic.Int64
		pool := NewWorkerPool(ctx, s.workers, s.logger)
		pool.Start()
		for i := range stale {
			challenge := &stale[i]
			pool.Submit(func(taskCtx context.Context) error {
				if err := s.challenges.Expire(taskCtx, challenge); err != nil {
					return err
				}
				done.Add(1)
				return nil
			})
		}
		pool.Wait()
		expired += int(done.Load())

		// A short batch means the backlog is drained. A batch with no
		// successful expiry at all means the rows are stuck; retrying them
		// within this sweep would just refetch the same ones.
		if len(stale) < batchSize || done.Load() == 0 {
			break
		}
	}

	if expired > 0 {
		s.logger.Info("expired stale challenges", "count", expired)
	}
	return expired
}
