package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/laala-payout-service/internal/domain/balance"
	"github.com/laala-payout-service/internal/domain/outbox"
	"github.com/laala-payout-service/internal/domain/shared"
	"github.com/laala-payout-service/internal/domain/withdrawal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations of the dependencies

type fakeTxExecutor struct{}

func (f *fakeTxExecutor) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, req *withdrawal.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*withdrawal.Request), args.Error(1)
}

func (m *MockWithdrawalRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*withdrawal.Request, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*withdrawal.Request), args.Error(1)
}

func (m *MockWithdrawalRepository) Update(ctx context.Context, req *withdrawal.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) FindDueForProcessing(ctx context.Context, now time.Time, limit int) ([]*withdrawal.Request, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*withdrawal.Request), args.Error(1)
}

func (m *MockWithdrawalRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*withdrawal.Request), args.Error(1)
}

func (m *MockWithdrawalRepository) WithTx(tx pgx.Tx) withdrawal.Repository {
	m.Called(tx)
	return m
}

type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) Create(ctx context.Context, bal *balance.Balance) error {
	args := m.Called(ctx, bal)
	return args.Error(0)
}

func (m *MockBalanceRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*balance.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Balance), args.Error(1)
}

func (m *MockBalanceRepository) Update(ctx context.Context, bal *balance.Balance) error {
	args := m.Called(ctx, bal)
	return args.Error(0)
}

func (m *MockBalanceRepository) LockForUpdate(ctx context.Context, userID uuid.UUID) (*balance.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Balance), args.Error(1)
}

func (m *MockBalanceRepository) WithTx(tx pgx.Tx) balance.Repository {
	m.Called(tx)
	return m
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetByEntryID(ctx context.Context, entryID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	m.Called(tx)
	return m
}

func newDueRequest(t *testing.T, userID uuid.UUID, amount int64) *withdrawal.Request {
	t.Helper()
	req, err := withdrawal.NewRequest(userID, amount, "+2250700000001", "orange", time.Minute)
	require.NoError(t, err)
	req.ScheduledProcessingAt = time.Now().Add(-time.Minute)
	return req
}

func TestProcessingService_ProcessWithdrawal(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	userID := uuid.New()

	newService := func(withdrawalRepo *MockWithdrawalRepository, balanceRepo *MockBalanceRepository, outboxRepo *MockOutboxRepository) ProcessingService {
		return NewProcessingService(logger, &fakeTxExecutor{}, withdrawalRepo, balanceRepo, outboxRepo)
	}

	t.Run("debits balance and approves the request", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		outboxRepo := new(MockOutboxRepository)
		svc := newService(withdrawalRepo, balanceRepo, outboxRepo)

		req := newDueRequest(t, userID, 5000)
		bal := balance.NewBalance(userID)
		bal.Amount = 8000

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		balanceRepo.On("WithTx", mock.Anything).Return()
		outboxRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)
		balanceRepo.On("LockForUpdate", ctx, userID).Return(bal, nil)
		balanceRepo.On("Update", ctx, bal).Return(nil)
		withdrawalRepo.On("Update", ctx, req).Return(nil)
		outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Run(func(args mock.Arguments) {
			message := args.Get(1).(*outbox.Message)
			entry, err := message.GetLedgerEntry()
			require.NoError(t, err)
			assert.Equal(t, shared.EntryTypeDebit, entry.Type)
			assert.Equal(t, shared.EntryStatusCompleted, entry.Status)
			assert.Equal(t, int64(5000), entry.Amount)
			assert.Equal(t, int64(3000), entry.BalanceAfter)
			require.NotNil(t, entry.WithdrawalID)
			assert.Equal(t, req.ID, *entry.WithdrawalID)
		}).Return(nil)

		err := svc.ProcessWithdrawal(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, withdrawal.StatusApproved, req.Status)
		assert.True(t, req.AmountDebited)
		assert.NotNil(t, req.ApprovedAt)
		assert.Equal(t, int64(3000), bal.Amount)
		withdrawalRepo.AssertExpectations(t)
		balanceRepo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("insufficient funds rejects without touching the balance", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		outboxRepo := new(MockOutboxRepository)
		svc := newService(withdrawalRepo, balanceRepo, outboxRepo)

		req := newDueRequest(t, userID, 5000)
		bal := balance.NewBalance(userID)
		bal.Amount = 3000

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		balanceRepo.On("WithTx", mock.Anything).Return()
		outboxRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)
		balanceRepo.On("LockForUpdate", ctx, userID).Return(bal, nil)
		withdrawalRepo.On("Update", ctx, req).Return(nil)
		outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Run(func(args mock.Arguments) {
			message := args.Get(1).(*outbox.Message)
			entry, err := message.GetLedgerEntry()
			require.NoError(t, err)
			assert.Equal(t, shared.EntryStatusFailed, entry.Status)
			assert.Equal(t, string(shared.FailureReasonInsufficientFunds), entry.FailureReason)
			assert.Equal(t, int64(3000), entry.BalanceAfter)
		}).Return(nil)

		err := svc.ProcessWithdrawal(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, withdrawal.StatusRejected, req.Status)
		assert.False(t, req.AmountDebited)
		assert.Equal(t, int64(3000), bal.Amount)
		balanceRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("request deleted between sweep and lock is skipped", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		outboxRepo := new(MockOutboxRepository)
		svc := newService(withdrawalRepo, balanceRepo, outboxRepo)

		missing := uuid.New()
		withdrawalRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, missing).Return(nil, withdrawal.ErrRequestNotFound{RequestID: missing})

		err := svc.ProcessWithdrawal(ctx, missing)
		assert.NoError(t, err)
		balanceRepo.AssertNotCalled(t, "LockForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("request no longer pending is skipped", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		outboxRepo := new(MockOutboxRepository)
		svc := newService(withdrawalRepo, balanceRepo, outboxRepo)

		req := newDueRequest(t, userID, 5000)
		require.NoError(t, req.Approve(time.Now()))

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)

		err := svc.ProcessWithdrawal(ctx, req.ID)
		assert.NoError(t, err)
		balanceRepo.AssertNotCalled(t, "LockForUpdate", mock.Anything, mock.Anything)
		outboxRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("request rescheduled into the future is skipped", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		outboxRepo := new(MockOutboxRepository)
		svc := newService(withdrawalRepo, balanceRepo, outboxRepo)

		req := newDueRequest(t, userID, 5000)
		req.ScheduledProcessingAt = time.Now().Add(time.Hour)

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)

		err := svc.ProcessWithdrawal(ctx, req.ID)
		assert.NoError(t, err)
		assert.Equal(t, withdrawal.StatusPending, req.Status)
		balanceRepo.AssertNotCalled(t, "LockForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("balance update failure aborts the transaction", func(t *testing.T) {
		withdrawalRepo := new(MockWithdrawalRepository)
		balanceRepo := new(MockBalanceRepository)
		outboxRepo := new(MockOutboxRepository)
		svc := newService(withdrawalRepo, balanceRepo, outboxRepo)

		req := newDueRequest(t, userID, 5000)
		bal := balance.NewBalance(userID)
		bal.Amount = 8000
		expectedErr := errors.New("db error")

		withdrawalRepo.On("WithTx", mock.Anything).Return()
		balanceRepo.On("WithTx", mock.Anything).Return()
		withdrawalRepo.On("LockForUpdate", ctx, req.ID).Return(req, nil)
		balanceRepo.On("LockForUpdate", ctx, userID).Return(bal, nil)
		balanceRepo.On("Update", ctx, bal).Return(expectedErr)

		err := svc.ProcessWithdrawal(ctx, req.ID)
		assert.ErrorIs(t, err, expectedErr)
		outboxRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
