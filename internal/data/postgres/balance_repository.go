// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the payout service.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/laala-payout-service/internal/domain/balance"
	"github.com/laala-payout-service/internal/platform/persistence"
)

// BalanceRepository implements the balance.Repository interface for PostgreSQL
type BalanceRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewBalanceRepository creates a new PostgreSQL balance repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewBalanceRepository(logger *slog.Logger, db *persistence.PostgresDB) balance.Repository {
	return &BalanceRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *BalanceRepository) WithTx(tx pgx.Tx) balance.Repository {
	return &BalanceRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new balance row for a user
func (r *BalanceRepository) Create(ctx context.Context, bal *balance.Balance) error {
	query := `
		INSERT INTO balances (user_id, amount, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.querier.Exec(ctx, query,
		bal.UserID,
		bal.Amount,
		bal.Version,
		bal.CreatedAt,
		bal.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create balance", "user_id", bal.UserID.String(), "error", err)
		return fmt.Errorf("failed to create balance: %w", err)
	}

	return nil
}

// GetByUserID retrieves a user's balance
func (r *BalanceRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*balance.Balance, error) {
	query := `
		SELECT user_id, amount, version, created_at, updated_at
		FROM balances
		WHERE user_id = $1
	`

	var bal balance.Balance
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&bal.UserID,
		&bal.Amount,
		&bal.Version,
		&bal.CreatedAt,
		&bal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, balance.ErrBalanceNotFound{UserID: userID}
		}
		r.logger.Error("Failed to get balance", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return &bal, nil
}

// Update persists a mutated balance using optimistic locking.
// Returns ErrConcurrentModification if the row changed since it was read.
func (r *BalanceRepository) Update(ctx context.Context, bal *balance.Balance) error {
	query := `
		UPDATE balances
		SET amount = $1, version = $2, updated_at = $3
		WHERE user_id = $4 AND version = $5
	`

	result, err := r.querier.Exec(ctx, query,
		bal.Amount,
		bal.Version,
		bal.UpdatedAt,
		bal.UserID,
		bal.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update balance", "user_id", bal.UserID.String(), "error", err)
		return fmt.Errorf("failed to update balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return balance.ErrConcurrentModification{UserID: bal.UserID}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the balance row and returns its
// current state. Must be used within a transaction so that the check-then-mutate
// step of a debit is a single atomic unit.
func (r *BalanceRepository) LockForUpdate(ctx context.Context, userID uuid.UUID) (*balance.Balance, error) {
	query := `
		SELECT user_id, amount, version, created_at, updated_at
		FROM balances
		WHERE user_id = $1
		FOR UPDATE
	`

	var bal balance.Balance
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&bal.UserID,
		&bal.Amount,
		&bal.Version,
		&bal.CreatedAt,
		&bal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, balance.ErrBalanceNotFound{UserID: userID}
		}
		r.logger.Error("Failed to lock balance for update", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to lock balance for update: %w", err)
	}

	return &bal, nil
}
