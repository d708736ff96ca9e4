package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/laala-payout-service/internal/domain/balance"
	"github.com/laala-payout-service/internal/domain/ledger"
	"github.com/laala-payout-service/internal/domain/outbox"
	"github.com/laala-payout-service/internal/domain/shared"
)

// BalanceServiceImpl implements the BalanceService interface
type BalanceServiceImpl struct {
	txExecutor  TxExecutor
	balanceRepo balance.Repository
	outboxRepo  outbox.Repository
	logger      *slog.Logger
}

// NewBalanceService creates a new balance service
func NewBalanceService(logger *slog.Logger, txExecutor TxExecutor, balanceRepo balance.Repository, outboxRepo outbox.Repository) BalanceService {
	return &BalanceServiceImpl{
		txExecutor:  txExecutor,
		balanceRepo: balanceRepo,
		outboxRepo:  outboxRepo,
		logger:      logger,
	}
}

// GetBalance retrieves the current balance of a user
func (s *BalanceServiceImpl) GetBalance(ctx context.Context, userID uuid.UUID) (*balance.Balance, error) {
	return s.balanceRepo.GetByUserID(ctx, userID)
}

// Credit adds earnings to a user's balance. The balance update and the CREDIT
// ledger entry staged in the outbox commit or roll back together.
func (s *BalanceServiceImpl) Credit(ctx context.Context, userID uuid.UUID, amount int64, correlationID string) (*balance.Balance, error) {
	var updated *balance.Balance

	err := s.txExecutor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		balanceRepo := s.balanceRepo.WithTx(tx)

		bal, err := balanceRepo.LockForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if err := bal.Credit(amount); err != nil {
			return err
		}

		if err := balanceRepo.Update(ctx, bal); err != nil {
			return err
		}

		entry := &ledger.Entry{
			EntryID:       uuid.New(),
			UserID:        userID,
			Type:          shared.EntryTypeCredit,
			Amount:        amount,
			Status:        shared.EntryStatusCompleted,
			BalanceAfter:  bal.Amount,
			CorrelationID: correlationID,
			CreatedAt:     time.Now(),
		}

		message, err := outbox.NewMessage(entry)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
			return err
		}

		updated = bal
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Credited balance",
		"user_id", userID.String(),
		"amount", amount,
		"balance_after", updated.Amount,
	)
	return updated, nil
}
