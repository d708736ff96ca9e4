package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/laala-payout-service/internal/domain/balance"
	"github.com/laala-payout-service/internal/domain/ledger"
	"github.com/laala-payout-service/internal/domain/user"
	"github.com/laala-payout-service/internal/domain/withdrawal"
)

// Common service errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotRequestOwner    = errors.New("withdrawal request belongs to another user")
)

// TxExecutor runs a function inside a database transaction.
// Satisfied by persistence.PostgresDB.
type TxExecutor interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// AuthService defines the interface for account registration and login
type AuthService interface {
	// Register creates a new user account with a zero balance.
	// Returns ErrDuplicateEmail if the email is already taken.
	Register(ctx context.Context, name, email, password, role string) (*user.User, error)

	// Login verifies credentials and issues an access token.
	// Returns ErrInvalidCredentials on mismatch.
	Login(ctx context.Context, email, password string) (string, *user.User, error)
}

// BalanceService defines the interface for balance operations
type BalanceService interface {
	// GetBalance retrieves the current balance of a user
	GetBalance(ctx context.Context, userID uuid.UUID) (*balance.Balance, error)

	// Credit adds earnings to a user's balance and stages a CREDIT ledger
	// entry in the same transaction
	Credit(ctx context.Context, userID uuid.UUID, amount int64, correlationID string) (*balance.Balance, error)
}

// WithdrawalService defines the interface for withdrawal request operations.
// All operations except Reject are scoped to the authenticated user.
type WithdrawalService interface {
	// Create records a new pending withdrawal request. The balance is only
	// pre-checked; no funds move until automatic processing.
	Create(ctx context.Context, userID uuid.UUID, amount int64, phoneNumber, operator string) (*withdrawal.Request, error)

	// List retrieves the user's withdrawal requests, newest first
	List(ctx context.Context, userID uuid.UUID) ([]*withdrawal.Request, error)

	// Update edits a pending request's amount and destination.
	// Returns ErrNotRequestOwner if the request belongs to another user.
	Update(ctx context.Context, userID, requestID uuid.UUID, amount int64, phoneNumber, operator string) (*withdrawal.Request, error)

	// Delete removes a request, crediting the amount back only if it has
	// already been debited
	Delete(ctx context.Context, userID, requestID uuid.UUID) error

	// Reject manually moves a pending request to the terminal Rejected state.
	// The balance is never touched.
	Reject(ctx context.Context, requestID uuid.UUID, reason string) (*withdrawal.Request, error)
}

// LedgerService defines the interface for the audit trail read surface
type LedgerService interface {
	// GetHistory retrieves a page of the user's ledger entries, newest first.
	// Returns entries, total count, and any error.
	GetHistory(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error)
}
