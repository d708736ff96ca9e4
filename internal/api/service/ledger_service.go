package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/laala-payout-service/internal/domain/ledger"
)

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(logger *slog.Logger, ledgerRepo ledger.Repository) LedgerService {
	return &LedgerServiceImpl{
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

// GetHistory retrieves a page of the user's ledger entries, newest first
func (s *LedgerServiceImpl) GetHistory(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.ledgerRepo.GetByUserID(ctx, userID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.ledgerRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
