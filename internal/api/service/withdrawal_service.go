package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/laala-payout-service/internal/config"
	"github.com/laala-payout-service/internal/domain/balance"
	"github.com/laala-payout-service/internal/domain/shared"
	"github.com/laala-payout-service/internal/domain/withdrawal"
)

// WithdrawalServiceImpl implements the WithdrawalService interface
type WithdrawalServiceImpl struct {
	txExecutor     TxExecutor
	withdrawalRepo withdrawal.Repository
	balanceRepo    balance.Repository
	cfg            *config.WithdrawalConfig
	logger         *slog.Logger
}

// NewWithdrawalService creates a new withdrawal service
func NewWithdrawalService(
	logger *slog.Logger,
	txExecutor TxExecutor,
	withdrawalRepo withdrawal.Repository,
	balanceRepo balance.Repository,
	cfg *config.WithdrawalConfig,
) WithdrawalService {
	return &WithdrawalServiceImpl{
		txExecutor:     txExecutor,
		withdrawalRepo: withdrawalRepo,
		balanceRepo:    balanceRepo,
		cfg:            cfg,
		logger:         logger,
	}
}

// Create records a new pending withdrawal request scheduled for automatic
// processing. The balance is only pre-checked so the user gets an immediate
// insufficient-funds answer; no funds move until the sweeper picks it up.
func (s *WithdrawalServiceImpl) Create(ctx context.Context, userID uuid.UUID, amount int64, phoneNumber, operator string) (*withdrawal.Request, error) {
	bal, err := s.balanceRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !bal.CanDebit(amount) {
		return nil, balance.ErrInsufficientFunds
	}

	req, err := withdrawal.NewRequest(userID, amount, phoneNumber, operator, s.cfg.ProcessingDelay)
	if err != nil {
		return nil, err
	}

	if err := s.withdrawalRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("Created withdrawal request",
		"withdrawal_id", req.ID.String(),
		"user_id", userID.String(),
		"amount", amount,
		"scheduled_processing_at", req.ScheduledProcessingAt,
	)
	return req, nil
}

// List retrieves the user's withdrawal requests, newest first
func (s *WithdrawalServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]*withdrawal.Request, error) {
	return s.withdrawalRepo.ListByUserID(ctx, userID)
}

// Update edits a pending request under a row lock. The new amount is
// re-checked against the balance but the balance itself is untouched.
func (s *WithdrawalServiceImpl) Update(ctx context.Context, userID, requestID uuid.UUID, amount int64, phoneNumber, operator string) (*withdrawal.Request, error) {
	var updated *withdrawal.Request

	err := s.txExecutor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		withdrawalRepo := s.withdrawalRepo.WithTx(tx)

		req, err := withdrawalRepo.LockForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.UserID != userID {
			return ErrNotRequestOwner
		}
		if !req.CanModify() {
			return withdrawal.ErrInvalidState{RequestID: req.ID, Status: req.Status}
		}

		bal, err := s.balanceRepo.WithTx(tx).GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if !bal.CanDebit(amount) {
			return balance.ErrInsufficientFunds
		}

		if err := req.ChangeDetails(amount, phoneNumber, operator); err != nil {
			return err
		}
		if err := withdrawalRepo.Update(ctx, req); err != nil {
			return err
		}

		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Updated withdrawal request", "withdrawal_id", requestID.String(), "amount", amount)
	return updated, nil
}

// Delete removes a pending request. Approved and Rejected requests are
// terminal and in-flight requests are owned by the sweeper, so none of them
// can be deleted. Nothing is ever debited while a request is pending, so the
// balance stays untouched.
func (s *WithdrawalServiceImpl) Delete(ctx context.Context, userID, requestID uuid.UUID) error {
	err := s.txExecutor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		withdrawalRepo := s.withdrawalRepo.WithTx(tx)

		req, err := withdrawalRepo.LockForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.UserID != userID {
			return ErrNotRequestOwner
		}
		if !req.CanModify() {
			return withdrawal.ErrInvalidState{RequestID: req.ID, Status: req.Status}
		}

		return withdrawalRepo.Delete(ctx, requestID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Deleted withdrawal request",
		"withdrawal_id", requestID.String(),
		"user_id", userID.String(),
	)
	return nil
}

// Reject manually moves a pending request to the terminal Rejected state.
// Nothing was debited for a pending request, so the balance stays untouched.
func (s *WithdrawalServiceImpl) Reject(ctx context.Context, requestID uuid.UUID, reason string) (*withdrawal.Request, error) {
	var rejected *withdrawal.Request

	err := s.txExecutor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		withdrawalRepo := s.withdrawalRepo.WithTx(tx)

		req, err := withdrawalRepo.LockForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.CanModify() {
			return withdrawal.ErrInvalidState{RequestID: req.ID, Status: req.Status}
		}

		if err := req.Reject(shared.FailureReasonManuallyRejected); err != nil {
			return err
		}
		if reason != "" {
			req.FailureReason = reason
		}
		if err := withdrawalRepo.Update(ctx, req); err != nil {
			return err
		}

		rejected = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Manually rejected withdrawal request", "withdrawal_id", requestID.String())
	return rejected, nil
}
