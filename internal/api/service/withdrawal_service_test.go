package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/laala-payout-service/internal/config"
	"github.com/laala-payout-service/internal/domain/balance"
	"github.com/laala-payout-service/internal/domain/shared"
	"github.com/laala-payout-service/internal/domain/withdrawal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestWithdrawalConfig() *config.WithdrawalConfig {
	return &config.WithdrawalConfig{
		ProcessingDelay: 5 * time.Minute,
		SweepInterval:   30 * time.Second,
		BatchSize:       50,
	}
}

func newFundedBalance(userID uuid.UUID, amount int64) *balance.Balance {
	bal := balance.NewBalance(userID)
	bal.Amount = amount
	return bal
}

func TestWithdrawalService_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	userID := uuid.New()

	t.Run("schedules a pending request without touching the balance", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		svc := NewWithdrawalService(logger, &fakeTxExecutor{}, withdrawalRepo, balanceRepo, newTestWithdrawalConfig())

		balanceRepo.On("GetByUserID", ctx, userID).Return(newFundedBalance(userID, 10000), nil)
		withdrawalRepo.On("Create", ctx, mock.AnythingOfType("*withdrawal.Request")).Return(nil)

		before := time.Now()
		req, err := svc.Create(ctx, userID, 5000, "+2250700000001", "orange")
		require.NoError(t, err)
		assert.Equal(t, withdrawal.StatusPending, req.Status)
		assert.False(t, req.AmountDebited)
		assert.WithinDuration(t, before.Add(5*time.Minute), req.ScheduledProcessingAt, 2*time.Second)
		balanceRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		withdrawalRepo.AssertExpectations(t)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		svc := NewWithdrawalService(logger, &fakeTxExecutor{}, withdrawalRepo, balanceRepo, newTestWithdrawalConfig())

		balanceRepo.On("GetByUserID", ctx, userID).Return(newFundedBalance(userID, 1000), nil)

		req, err := svc.Create(ctx, userID, 5000, "+2250700000001", "orange")
		assert.Nil(t, req)
		assert.ErrorIs(t, err, balance.ErrInsufficientFunds)
		withdrawalRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestWithdrawalService_Update(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	userID := uuid.New()

	newPending := func(t *testing.T) *withdrawal.Request {
		t.Helper()
		req, err := withdrawal.NewRequest(userID, 5000, "+2250700000001", "orange", 5*time.Minute)
		require.NoError(t, err)
		return req
	}

	t.Run("edits a pending request", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		svc := NewWithdrawalService(logger, &fakeTxExecutor{}, withdrawalRepo, balanceRepo, newTestWithdrawalConfig())

		req := newPending(t)
		originalSchedule := req.ScheduledProcessingAt

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		balanceRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)
		balanceRepo.On("GetByUserID", ctx, userID).Return(newFundedBalance(userID, 10000), nil)
		withdrawalRepo.On("Update", ctx, req).Return(nil)

		updated, err := svc.Update(ctx, userID, req.ID, 8000, "+2250700000002", "mtn")
		require.NoError(t, err)
		assert.Equal(t, int64(8000), updated.Amount)
		assert.Equal(t, "mtn", updated.Operator)
		assert.Equal(t, originalSchedule, updated.ScheduledProcessingAt)
		withdrawalRepo.AssertExpectations(t)
	})

	t.Run("not the owner", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		svc := NewWithdrawalService(logger, &fakeTxExecutor{}, withdrawalRepo, balanceRepo, newTestWithdrawalConfig())

		req := newPending(t)

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)

		updated, err := svc.Update(ctx, uuid.New(), req.ID, 8000, "+2250700000002", "mtn")
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, ErrNotRequestOwner)
		withdrawalRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("approved request cannot be edited", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		svc := NewWithdrawalService(logger, &fakeTxExecutor{}, withdrawalRepo, balanceRepo, newTestWithdrawalConfig())

		req := newPending(t)
		require.NoError(t, req.Approve(time.Now()))

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)

		updated, err := svc.Update(ctx, userID, req.ID, 8000, "+2250700000002", "mtn")
		assert.Nil(t, updated)
		var invalidErr withdrawal.ErrInvalidState
		assert.ErrorAs(t, err, &invalidErr)
		assert.Equal(t, withdrawal.StatusApproved, invalidErr.Status)
	})

	t.Run("new amount exceeds balance", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		svc := NewWithdrawalService(logger, &fakeTxExecutor{}, withdrawalRepo, balanceRepo, newTestWithdrawalConfig())

		req := newPending(t)

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		balanceRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)
		balanceRepo.On("GetByUserID", ctx, userID).Return(newFundedBalance(userID, 6000), nil)

		updated, err := svc.Update(ctx, userID, req.ID, 8000, "+2250700000002", "mtn")
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, balance.ErrInsufficientFunds)
		assert.Equal(t, int64(5000), req.Amount)
	})
}

func TestWithdrawalService_Delete(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	userID := uuid.New()

	t.Run("pending request deleted without touching the balance", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		svc := NewWithdrawalService(logger, &fakeTxExecutor{}, withdrawalRepo, balanceRepo, newTestWithdrawalConfig())

		req, err := withdrawal.NewRequest(userID, 5000, "+2250700000001", "orange", 5*time.Minute)
		require.NoError(t, err)

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)
		withdrawalRepo.On("Delete", ctx, req.ID).Return(nil)

		require.NoError(t, svc.Delete(ctx, userID, req.ID))
		balanceRepo.AssertNotCalled(t, "LockForUpdate", mock.Anything, mock.Anything)
		balanceRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		withdrawalRepo.AssertExpectations(t)
	})

	t.Run("approved request cannot be deleted", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		svc := NewWithdrawalService(logger, &fakeTxExecutor{}, withdrawalRepo, balanceRepo, newTestWithdrawalConfig())

		req, err := withdrawal.NewRequest(userID, 5000, "+2250700000001", "orange", time.Minute)
		require.NoError(t, err)
		require.NoError(t, req.Approve(time.Now()))

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)

		err = svc.Delete(ctx, userID, req.ID)
		var invalidErr withdrawal.ErrInvalidState
		assert.ErrorAs(t, err, &invalidErr)
		assert.Equal(t, withdrawal.StatusApproved, invalidErr.Status)
		withdrawalRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		balanceRepo.AssertNotCalled(t, "LockForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("rejected request cannot be deleted", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		svc := NewWithdrawalService(logger, &fakeTxExecutor{}, withdrawalRepo, balanceRepo, newTestWithdrawalConfig())

		req, err := withdrawal.NewRequest(userID, 5000, "+2250700000001", "orange", time.Minute)
		require.NoError(t, err)
		require.NoError(t, req.Reject(shared.FailureReasonManuallyRejected))

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)

		err = svc.Delete(ctx, userID, req.ID)
		var invalidErr withdrawal.ErrInvalidState
		assert.ErrorAs(t, err, &invalidErr)
		assert.Equal(t, withdrawal.StatusRejected, invalidErr.Status)
		withdrawalRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("processing request cannot be deleted", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		svc := NewWithdrawalService(logger, &fakeTxExecutor{}, withdrawalRepo, balanceRepo, newTestWithdrawalConfig())

		req, err := withdrawal.NewRequest(userID, 5000, "+2250700000001", "orange", time.Minute)
		require.NoError(t, err)
		req.Status = withdrawal.StatusProcessing

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)

		err = svc.Delete(ctx, userID, req.ID)
		var invalidErr withdrawal.ErrInvalidState
		assert.ErrorAs(t, err, &invalidErr)
		withdrawalRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestWithdrawalService_Reject(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	userID := uuid.New()

	t.Run("rejects a pending request with default reason", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		svc := NewWithdrawalService(logger, &fakeTxExecutor{}, withdrawalRepo, new(MockBalanceRepository), newTestWithdrawalConfig())

		req, err := withdrawal.NewRequest(userID, 5000, "+2250700000001", "orange", time.Minute)
		require.NoError(t, err)

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)
		withdrawalRepo.On("Update", ctx, req).Return(nil)

		rejected, err := svc.Reject(ctx, req.ID, "")
		require.NoError(t, err)
		assert.Equal(t, withdrawal.StatusRejected, rejected.Status)
		assert.Equal(t, string(shared.FailureReasonManuallyRejected), rejected.FailureReason)
		assert.False(t, rejected.AmountDebited)
	})

	t.Run("custom reason overrides the default", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		svc := NewWithdrawalService(logger, &fakeTxExecutor{}, withdrawalRepo, new(MockBalanceRepository), newTestWithdrawalConfig())

		req, err := withdrawal.NewRequest(userID, 5000, "+2250700000001", "orange", time.Minute)
		require.NoError(t, err)

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)
		withdrawalRepo.On("Update", ctx, req).Return(nil)

		rejected, err := svc.Reject(ctx, req.ID, "suspicious destination number")
		require.NoError(t, err)
		assert.Equal(t, "suspicious destination number", rejected.FailureReason)
	})

	t.Run("terminal request cannot be rejected again", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		svc := NewWithdrawalService(logger, &fakeTxExecutor{}, withdrawalRepo, new(MockBalanceRepository), newTestWithdrawalConfig())

		req, err := withdrawal.NewRequest(userID, 5000, "+2250700000001", "orange", time.Minute)
		require.NoError(t, err)
		require.NoError(t, req.Reject(shared.FailureReasonManuallyRejected))

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)

		rejected, err := svc.Reject(ctx, req.ID, "")
		assert.Nil(t, rejected)
		var invalidErr withdrawal.ErrInvalidState
		assert.ErrorAs(t, err, &invalidErr)
		withdrawalRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
