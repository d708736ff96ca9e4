package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/laala-payout-service/internal/domain/withdrawal"
	"github.com/laala-payout-service/internal/platform/persistence"
)

// WithdrawalRepository implements the withdrawal.Repository interface for PostgreSQL
type WithdrawalRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewWithdrawalRepository creates a new PostgreSQL withdrawal repository
func NewWithdrawalRepository(logger *slog.Logger, db *persistence.PostgresDB) withdrawal.Repository {
	return &WithdrawalRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *WithdrawalRepository) WithTx(tx pgx.Tx) withdrawal.Repository {
	return &WithdrawalRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const withdrawalColumns = `
	id, user_id, amount, phone_number, operator, status, failure_reason,
	amount_debited, created_at, updated_at, scheduled_processing_at, approved_at
`

func scanWithdrawal(row pgx.Row) (*withdrawal.Request, error) {
	var req withdrawal.Request
	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.Amount,
		&req.PhoneNumber,
		&req.Operator,
		&req.Status,
		&req.FailureReason,
		&req.AmountDebited,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.ScheduledProcessingAt,
		&req.ApprovedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create stores a new withdrawal request
func (r *WithdrawalRepository) Create(ctx context.Context, req *withdrawal.Request) error {
	query := `
		INSERT INTO withdrawal_requests (
			id, user_id, amount, phone_number, operator, status, failure_reason,
			amount_debited, created_at, updated_at, scheduled_processing_at, approved_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		req.ID,
		req.UserID,
		req.Amount,
		req.PhoneNumber,
		req.Operator,
		req.Status,
		req.FailureReason,
		req.AmountDebited,
		req.CreatedAt,
		req.UpdatedAt,
		req.ScheduledProcessingAt,
		req.ApprovedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create withdrawal request", "withdrawal_id", req.ID.String(), "error", err)
		return fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	return nil
}

// GetByID retrieves a withdrawal request by its ID
func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE id = $1
	`

	req, err := scanWithdrawal(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, withdrawal.ErrRequestNotFound{RequestID: id}
		}
		r.logger.Error("Failed to get withdrawal request", "withdrawal_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
	}

	return req, nil
}

// ListByUserID retrieves all withdrawal requests of a user, newest first
func (r *WithdrawalRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*withdrawal.Request, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list withdrawal requests", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to list withdrawal requests: %w", err)
	}
	defer rows.Close()

	var requests []*withdrawal.Request
	for rows.Next() {
		req, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawal requests: %w", err)
	}

	return requests, nil
}

// Update persists a mutated withdrawal request
func (r *WithdrawalRepository) Update(ctx context.Context, req *withdrawal.Request) error {
	query := `
		UPDATE withdrawal_requests
		SET amount = $1, phone_number = $2, operator = $3, status = $4,
			failure_reason = $5, amount_debited = $6, updated_at = $7,
			scheduled_processing_at = $8, approved_at = $9
		WHERE id = $10
	`

	result, err := r.querier.Exec(ctx, query,
		req.Amount,
		req.PhoneNumber,
		req.Operator,
		req.Status,
		req.FailureReason,
		req.AmountDebited,
		req.UpdatedAt,
		req.ScheduledProcessingAt,
		req.ApprovedAt,
		req.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update withdrawal request", "withdrawal_id", req.ID.String(), "error", err)
		return fmt.Errorf("failed to update withdrawal request: %w", err)
	}

	if result.RowsAffected() == 0 {
		return withdrawal.ErrRequestNotFound{RequestID: req.ID}
	}

	return nil
}

// Delete removes a withdrawal request
func (r *WithdrawalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM withdrawal_requests WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete withdrawal request", "withdrawal_id", id.String(), "error", err)
		return fmt.Errorf("failed to delete withdrawal request: %w", err)
	}

	if result.RowsAffected() == 0 {
		return withdrawal.ErrRequestNotFound{RequestID: id}
	}

	return nil
}

// FindDueForProcessing retrieves pending requests whose scheduled processing
// time has been reached, oldest first. SKIP LOCKED keeps overlapping sweeps
// from queueing on rows a worker is already processing; the authoritative
// due/status check is still re-done under a row lock before any balance
// movement.
func (r *WithdrawalRepository) FindDueForProcessing(ctx context.Context, now time.Time, limit int) ([]*withdrawal.Request, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE status = $1 AND scheduled_processing_at <= $2
		ORDER BY scheduled_processing_at ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.querier.Query(ctx, query, withdrawal.StatusPending, now, limit)
	if err != nil {
		r.logger.Error("Failed to find due withdrawal requests", "error", err)
		return nil, fmt.Errorf("failed to find due withdrawal requests: %w", err)
	}
	defer rows.Close()

	var requests []*withdrawal.Request
	for rows.Next() {
		req, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due withdrawal requests: %w", err)
	}

	return requests, nil
}

// LockForUpdate obtains a pessimistic lock on the request row and returns its
// current state. Must be used within a transaction.
func (r *WithdrawalRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE id = $1
		FOR UPDATE
	`

	req, err := scanWithdrawal(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, withdrawal.ErrRequestNotFound{RequestID: id}
		}
		r.logger.Error("Failed to lock withdrawal request for update", "withdrawal_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock withdrawal request for update: %w", err)
	}

	return req, nil
}
