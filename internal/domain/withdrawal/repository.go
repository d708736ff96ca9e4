package withdrawal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines withdrawal request persistence operations
type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*Request, error)
	Update(ctx context.Context, req *Request) error
	Delete(ctx context.Context, id uuid.UUID) error

	// FindDueForProcessing returns pending requests whose scheduled processing
	// time has elapsed, oldest first.
	FindDueForProcessing(ctx context.Context, now time.Time, limit int) ([]*Request, error)

	// LockForUpdate acquires a pessimistic lock on the request row so that the
	// sweeper and user edits/deletes serialize on status and amount_debited.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Request, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrRequestNotFound indicates a missing withdrawal request
type ErrRequestNotFound struct {
	RequestID uuid.UUID
}

func (e ErrRequestNotFound) Error() string {
	return "withdrawal request not found: " + e.RequestID.String()
}

// ErrInvalidState indicates an operation on a request whose state forbids it
type ErrInvalidState struct {
	RequestID uuid.UUID
	Status    Status
}

func (e ErrInvalidState) Error() string {
	return "withdrawal request " + e.RequestID.String() + " is " + string(e.Status) + " and can no longer be modified"
}
