package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/laala-payout-service/internal/domain/shared"
)

// Entry is an audit record of a single balance movement. Entries are
// append-only; the balances table stays the funds authority, the ledger
// is the history users see.
type Entry struct {
	EntryID       uuid.UUID          `json:"entry_id" bson:"entry_id"`
	UserID        uuid.UUID          `json:"user_id" bson:"user_id"`
	WithdrawalID  *uuid.UUID         `json:"withdrawal_id,omitempty" bson:"withdrawal_id,omitempty"`
	Type          shared.EntryType   `json:"type" bson:"type"`
	Amount        int64              `json:"amount" bson:"amount"` // Stored in minor units
	Status        shared.EntryStatus `json:"status" bson:"status"`
	FailureReason string             `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	BalanceAfter  int64              `json:"balance_after" bson:"balance_after"`
	CorrelationID string             `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	RecordedAt    *time.Time         `json:"recorded_at,omitempty" bson:"recorded_at,omitempty"`
}
