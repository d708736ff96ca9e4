package outbox_poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/laala-payout-service/internal/domain/ledger"
	"github.com/laala-payout-service/internal/domain/outbox"
	"github.com/laala-payout-service/internal/domain/shared"
	"github.com/laala-payout-service/internal/platform/messaging/producers"
)

// LedgerPublisher publishes outbox messages to the ledger and event stream
type LedgerPublisher interface {
	PublishToLedger(ctx context.Context, message *outbox.Message) error
}

// LedgerPublisherImpl implements LedgerPublisher
type LedgerPublisherImpl struct {
	outboxRepo    outbox.Repository
	ledgerRepo    ledger.Repository
	eventProducer producers.MessagePublisher
	logger        *slog.Logger
}

// NewLedgerPublisher creates a new publisher
func NewLedgerPublisher(
	outboxRepo outbox.Repository,
	ledgerRepo ledger.Repository,
	eventProducer producers.MessagePublisher,
	logger *slog.Logger,
) LedgerPublisher {
	return &LedgerPublisherImpl{
		outboxRepo:    outboxRepo,
		ledgerRepo:    ledgerRepo,
		eventProducer: eventProducer,
		logger:        logger,
	}
}

// PublishToLedger writes the staged entry to the MongoDB audit trail, emits a
// payout event, and marks the outbox message processed. A duplicate ledger
// entry from an earlier partial run is treated as already written.
func (p *LedgerPublisherImpl) PublishToLedger(ctx context.Context, message *outbox.Message) error {
	var entry ledger.Entry
	if err := json.Unmarshal(message.Payload, &entry); err != nil {
		p.logger.Error("Failed to unmarshal ledger entry from outbox payload",
			"outbox_id", message.ID, "entry_id", message.EntryID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if entry.CorrelationID != "" {
		logger = p.logger.With("correlation_id", entry.CorrelationID)
	}

	logger.Info("Attempting to publish outbox message to ledger", "outbox_id", message.ID, "entry_id", message.EntryID)

	now := time.Now().UTC()
	entry.RecordedAt = &now

	err := p.ledgerRepo.Create(ctx, &entry)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateEntry{}) {
			// A previous run wrote the entry but failed before marking the
			// outbox message; only the marking is left to do.
			logger.Info("Ledger entry already recorded", "entry_id", entry.EntryID)
		} else {
			logger.Error("Failed to create ledger entry in MongoDB", "entry_id", entry.EntryID, "error", err)
			return fmt.Errorf("failed to create ledger entry %s: %w", entry.EntryID, err)
		}
	} else {
		logger.Info("Successfully created ledger entry in MongoDB", "entry_id", entry.EntryID)
	}

	if err := p.eventProducer.Publish(ctx, entry.UserID.String(), &entry); err != nil {
		logger.Error("Failed to publish payout event", "entry_id", entry.EntryID, "error", err)
		return fmt.Errorf("failed to publish payout event for entry %s: %w", entry.EntryID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "entry_id", message.EntryID, "error", err,
		)
		return fmt.Errorf("ledger write for %s OK, but failed to mark outbox %d as PROCESSED: %w", message.EntryID, message.ID, err)
	}

	logger.Info("Outbox message successfully processed and marked as PROCESSED", "outbox_id", message.ID, "entry_id", message.EntryID)
	return nil
}
