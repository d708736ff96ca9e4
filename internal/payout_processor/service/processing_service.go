// Package service implements the automatic processing of due withdrawal
// requests: the check-then-debit step runs under row locks in a single
// database transaction so a request's debit applies at most once.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/laala-payout-service/internal/domain/balance"
	"github.com/laala-payout-service/internal/domain/ledger"
	"github.com/laala-payout-service/internal/domain/outbox"
	"github.com/laala-payout-service/internal/domain/shared"
	"github.com/laala-payout-service/internal/domain/withdrawal"
)

type ProcessingServiceImpl struct {
	txExecutor     TxExecutor
	withdrawalRepo withdrawal.Repository
	balanceRepo    balance.Repository
	outboxRepo     outbox.Repository
	logger         *slog.Logger
}

func NewProcessingService(
	logger *slog.Logger,
	txExecutor TxExecutor,
	withdrawalRepo withdrawal.Repository,
	balanceRepo balance.Repository,
	outboxRepo outbox.Repository,
) ProcessingService {
	return &ProcessingServiceImpl{
		txExecutor:     txExecutor,
		withdrawalRepo: withdrawalRepo,
		balanceRepo:    balanceRepo,
		outboxRepo:     outboxRepo,
		logger:         logger,
	}
}

// ProcessWithdrawal handles the core logic for processing one due request.
//
// The request row is locked FOR UPDATE and its eligibility re-checked under
// the lock: a request that a concurrent sweep already approved, a user edit
// moved, or whose debit was already applied is skipped without error. The
// balance debit, the status change, and the outbox entry commit atomically.
func (s *ProcessingServiceImpl) ProcessWithdrawal(ctx context.Context, requestID uuid.UUID) error {
	return s.txExecutor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		withdrawalRepo := s.withdrawalRepo.WithTx(tx)

		req, err := withdrawalRepo.LockForUpdate(ctx, requestID)
		if err != nil {
			var notFoundErr withdrawal.ErrRequestNotFound
			if errors.As(err, &notFoundErr) {
				// Deleted between the sweep query and the lock
				s.logger.Info("Withdrawal request no longer exists, skipping", "withdrawal_id", requestID.String())
				return nil
			}
			return err
		}

		now := time.Now()
		if !req.Due(now) || req.AmountDebited {
			s.logger.Info("Withdrawal request no longer eligible, skipping",
				"withdrawal_id", req.ID.String(),
				"status", string(req.Status),
				"amount_debited", req.AmountDebited,
			)
			return nil
		}

		balanceRepo := s.balanceRepo.WithTx(tx)

		bal, err := balanceRepo.LockForUpdate(ctx, req.UserID)
		if err != nil {
			return err
		}

		if err := bal.Debit(req.Amount); err != nil {
			if errors.Is(err, balance.ErrInsufficientFunds) {
				return s.rejectInsufficientFunds(ctx, tx, req, bal)
			}
			return err
		}

		if err := balanceRepo.Update(ctx, bal); err != nil {
			return err
		}

		if err := req.Approve(now); err != nil {
			return err
		}
		if err := withdrawalRepo.Update(ctx, req); err != nil {
			return err
		}

		entry := &ledger.Entry{
			EntryID:      uuid.New(),
			UserID:       req.UserID,
			WithdrawalID: &req.ID,
			Type:         shared.EntryTypeDebit,
			Amount:       req.Amount,
			Status:       shared.EntryStatusCompleted,
			BalanceAfter: bal.Amount,
			CreatedAt:    now,
		}
		if err := s.stageOutboxEntry(ctx, tx, entry); err != nil {
			return err
		}

		s.logger.Info("Approved withdrawal request",
			"withdrawal_id", req.ID.String(),
			"user_id", req.UserID.String(),
			"amount", req.Amount,
			"balance_after", bal.Amount,
		)
		return nil
	})
}

// rejectInsufficientFunds moves the request to the terminal Rejected state
// with the balance untouched, recording a FAILED ledger entry for the audit
// trail. Committed in the same transaction that holds the row locks.
func (s *ProcessingServiceImpl) rejectInsufficientFunds(ctx context.Context, tx pgx.Tx, req *withdrawal.Request, bal *balance.Balance) error {
	if err := req.Reject(shared.FailureReasonInsufficientFunds); err != nil {
		return err
	}
	if err := s.withdrawalRepo.WithTx(tx).Update(ctx, req); err != nil {
		return err
	}

	entry := &ledger.Entry{
		EntryID:       uuid.New(),
		UserID:        req.UserID,
		WithdrawalID:  &req.ID,
		Type:          shared.EntryTypeDebit,
		Amount:        req.Amount,
		Status:        shared.EntryStatusFailed,
		FailureReason: string(shared.FailureReasonInsufficientFunds),
		BalanceAfter:  bal.Amount,
		CreatedAt:     time.Now(),
	}
	if err := s.stageOutboxEntry(ctx, tx, entry); err != nil {
		return err
	}

	s.logger.Warn("Rejected withdrawal request for insufficient funds",
		"withdrawal_id", req.ID.String(),
		"user_id", req.UserID.String(),
		"amount", req.Amount,
		"balance", bal.Amount,
	)
	return nil
}

func (s *ProcessingServiceImpl) stageOutboxEntry(ctx context.Context, tx pgx.Tx, entry *ledger.Entry) error {
	message, err := outbox.NewMessage(entry)
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, message)
}
