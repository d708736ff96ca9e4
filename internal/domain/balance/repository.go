package balance

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines balance persistence operations
type Repository interface {
	Create(ctx context.Context, bal *Balance) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Balance, error)
	Update(ctx context.Context, bal *Balance) error

	// LockForUpdate acquires a pessimistic lock on the balance row.
	// Debits and credits must run against a locked balance inside a transaction.
	LockForUpdate(ctx context.Context, userID uuid.UUID) (*Balance, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	UserID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for balance of user: " + e.UserID.String()
}

// ErrBalanceNotFound indicates the user has no balance row
type ErrBalanceNotFound struct {
	UserID uuid.UUID
}

func (e ErrBalanceNotFound) Error() string {
	return "balance not found for user: " + e.UserID.String()
}
