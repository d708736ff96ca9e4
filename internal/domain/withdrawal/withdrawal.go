package withdrawal

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/laala-payout-service/internal/domain/shared"
)

// Common errors
var (
	ErrInvalidAmount      = errors.New("withdrawal amount must be positive")
	ErrMissingDestination = errors.New("phone number and operator are required")
	ErrNotPending         = errors.New("withdrawal request is not pending")
)

// Status defines the withdrawal request lifecycle states
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
)

// Request represents a user's intent to move funds out of their balance.
// It starts Pending and is promoted to Approved by the sweeper once its
// scheduled processing time has elapsed. Approved and Rejected are terminal.
type Request struct {
	ID                    uuid.UUID  `json:"id"`
	UserID                uuid.UUID  `json:"user_id"`
	Amount                int64      `json:"amount"` // Stored in minor units
	PhoneNumber           string     `json:"phone_number"`
	Operator              string     `json:"operator"`
	Status                Status     `json:"status"`
	FailureReason         string     `json:"failure_reason,omitempty"`
	AmountDebited         bool       `json:"amount_debited"` // Guard: the debit for this request applied at most once
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	ScheduledProcessingAt time.Time  `json:"scheduled_processing_at"`
	ApprovedAt            *time.Time `json:"approved_at,omitempty"`
}

// NewRequest creates a pending withdrawal request scheduled for automatic
// processing after the given delay. No funds are debited at creation time.
func NewRequest(userID uuid.UUID, amount int64, phoneNumber, operator string, processingDelay time.Duration) (*Request, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if phoneNumber == "" || operator == "" {
		return nil, ErrMissingDestination
	}

	now := time.Now()
	return &Request{
		ID:                    uuid.New(),
		UserID:                userID,
		Amount:                amount,
		PhoneNumber:           phoneNumber,
		Operator:              operator,
		Status:                StatusPending,
		AmountDebited:         false,
		CreatedAt:             now,
		UpdatedAt:             now,
		ScheduledProcessingAt: now.Add(processingDelay),
	}, nil
}

// CanModify reports whether the request still accepts user edits and deletes
func (r *Request) CanModify() bool {
	return r.Status == StatusPending
}

// Due reports whether the request is eligible for automatic processing
func (r *Request) Due(now time.Time) bool {
	return r.Status == StatusPending && !r.ScheduledProcessingAt.After(now)
}

// ChangeDetails updates amount and destination while the request is Pending.
// The balance is untouched: nothing has been debited for a pending request.
func (r *Request) ChangeDetails(amount int64, phoneNumber, operator string) error {
	if !r.CanModify() {
		return ErrNotPending
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if phoneNumber == "" || operator == "" {
		return ErrMissingDestination
	}

	r.Amount = amount
	r.PhoneNumber = phoneNumber
	r.Operator = operator
	r.UpdatedAt = time.Now()
	return nil
}

// Approve marks the request approved and records that its debit has been
// applied. Must be called in the same transaction as the balance debit.
func (r *Request) Approve(now time.Time) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}

	r.Status = StatusApproved
	r.AmountDebited = true
	r.ApprovedAt = &now
	r.UpdatedAt = now
	return nil
}

// Reject moves the request to the terminal Rejected state with a reason.
// The balance is never touched: a rejected request was never debited.
func (r *Request) Reject(reason shared.FailureReason) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}

	r.Status = StatusRejected
	r.FailureReason = string(reason)
	r.UpdatedAt = time.Now()
	return nil
}
