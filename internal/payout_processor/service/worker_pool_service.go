package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProcessingService wraps a ProcessingService with a bounded ants
// pool, capping concurrent withdrawal processing no matter how many due
// requests a sweep picks up.
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger

	mu      sync.Mutex // guards results
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ProcessWithdrawal submits the request to the pool and blocks until the
// worker reports back, so callers see the same synchronous contract as the
// wrapped service.
func (s *WorkerPoolProcessingService) ProcessWithdrawal(ctx context.Context, requestID uuid.UUID) error {
	s.logger.Debug("Submitting withdrawal request to worker pool", "withdrawal_id", requestID.String())

	resultChan := make(chan error, 1)

	key := requestID.String()
	s.mu.Lock()
	s.results[key] = resultChan
	s.mu.Unlock()

	err := s.pool.Submit(func() {
		err := s.baseService.ProcessWithdrawal(ctx, requestID)

		resultChan <- err

		s.mu.Lock()
		delete(s.results, key)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		// Submission failed, so no worker will ever write to the channel
		s.mu.Lock()
		delete(s.results, key)
		close(resultChan)
		s.mu.Unlock()

		s.logger.Error("Failed to submit withdrawal request to worker pool",
			"withdrawal_id", requestID.String(),
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// Shutdown releases the pool. Pending submissions are rejected.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running reports how many workers are currently busy.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity reports the pool's worker cap.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
