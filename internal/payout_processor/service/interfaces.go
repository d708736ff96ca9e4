package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProcessingService defines the interface for processing due withdrawal requests
type ProcessingService interface {
	// ProcessWithdrawal promotes one due pending request to Approved with its
	// debit applied, or to Rejected when funds are insufficient. Safe to call
	// again for an already-processed request.
	ProcessWithdrawal(ctx context.Context, requestID uuid.UUID) error
}

// TxExecutor runs a function inside a database transaction.
// Satisfied by persistence.PostgresDB.
type TxExecutor interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}
