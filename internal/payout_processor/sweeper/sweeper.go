// Package sweeper runs the polling loop that finds withdrawal requests whose
// scheduled processing time has elapsed and hands them to the processing
// service.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/laala-payout-service/internal/config"
	"github.com/laala-payout-service/internal/domain/withdrawal"
	"github.com/laala-payout-service/internal/payout_processor/service"
)

// Sweeper periodically processes due withdrawal requests
type Sweeper struct {
	withdrawalRepo withdrawal.Repository
	processor      service.ProcessingService
	logger         *slog.Logger
	interval       time.Duration
	batchSize      int
}

func NewSweeper(
	cfg *config.WithdrawalConfig,
	withdrawalRepo withdrawal.Repository,
	processor service.ProcessingService,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		withdrawalRepo: withdrawalRepo,
		processor:      processor,
		logger:         logger,
		interval:       cfg.SweepInterval,
		batchSize:      cfg.BatchSize,
	}
}

// Start begins sweeping until context is canceled
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting withdrawal sweeper",
		"sweep_interval", s.interval.String(),
		"batch_size", s.batchSize,
	)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Withdrawal sweeper stopping due to context cancellation.")
			return
		case <-ticker.C:
			s.logger.Debug("Sweeper tick: looking for due withdrawal requests")
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("Error during withdrawal sweep", "error", err)
			}
		}
	}
}

// RunOnce performs a single sweep and returns the number of requests that
// were processed without error. A failure on one request never stops the
// rest of the batch.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	requests, err := s.withdrawalRepo.FindDueForProcessing(ctx, time.Now(), s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to find due withdrawal requests: %w", err)
	}

	if len(requests) == 0 {
		s.logger.Debug("No due withdrawal requests found.")
		return 0, nil
	}

	s.logger.Info("Fetched due withdrawal requests", "count", len(requests))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
	)

	for _, req := range requests {
		wg.Add(1)
		go func(req *withdrawal.Request) {
			defer wg.Done()

			if err := s.processor.ProcessWithdrawal(ctx, req.ID); err != nil {
				s.logger.Error("Failed to process withdrawal request",
					"withdrawal_id", req.ID.String(),
					"user_id", req.UserID.String(),
					"error", err,
				)
				return
			}

			mu.Lock()
			processed++
			mu.Unlock()
		}(req)
	}

	wg.Wait()

	s.logger.Info("Withdrawal sweep finished", "due", len(requests), "processed", processed)
	return processed, nil
}
