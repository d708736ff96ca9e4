// Package outbox_poller drains the transactional outbox: each staged balance
// movement is written to the MongoDB ledger and announced on Kafka, with
// bounded retries for messages that fail to publish.
package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/laala-payout-service/internal/config"
	"github.com/laala-payout-service/internal/domain/outbox"
	"github.com/laala-payout-service/internal/domain/shared"
)

// Poller periodically picks up pending outbox messages and hands them to
// the ledger publisher. A message that keeps failing is parked as
// FAILED_TO_PUBLISH once it exhausts its retry budget.
type Poller struct {
	outboxRepo       outbox.Repository
	ledgerPublisher  LedgerPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	ledgerPublisher LedgerPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		ledgerPublisher:  ledgerPublisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start polls on the configured interval until ctx is canceled.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}

	p.logger.Info("Fetched pending outbox messages", "count", len(messages))
	for _, msg := range messages {
		p.handleMessage(ctx, msg)
	}
	return nil
}

// handleMessage publishes one message and applies the retry bookkeeping on
// failure. Errors are logged, never returned: one stuck message must not
// stall the rest of the batch.
func (p *Poller) handleMessage(ctx context.Context, msg *outbox.Message) {
	logger := p.logger.With("outbox_id", msg.ID, "entry_id", msg.EntryID)
	if entry, err := msg.GetLedgerEntry(); err == nil && entry.CorrelationID != "" {
		logger = logger.With("correlation_id", entry.CorrelationID)
	}

	if err := p.ledgerPublisher.PublishToLedger(ctx, msg); err != nil {
		logger.Error("Failed to publish outbox message to ledger",
			"current_attempts", msg.Attempts, "error", err)

		if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
			logger.Error("Failed to increment attempts for outbox message", "error", errInc)
			return
		}

		if msg.Attempts+1 >= p.maxRetryAttempts {
			logger.Warn("Max retry attempts reached for outbox message, marking as FAILED_TO_PUBLISH",
				"attempts_made", msg.Attempts+1)
			if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); errUpdate != nil {
				logger.Error("Failed to update outbox status after max retries", "error", errUpdate)
			}
		}
		return
	}

	logger.Info("Published outbox message")
}
