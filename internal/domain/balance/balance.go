package balance

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds for debit")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Balance holds a user's current withdrawable funds.
// It is the single authority for funds availability; all mutation goes
// through Debit and Credit.
type Balance struct {
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"` // Stored in minor units (e.g. centimes)
	Version   int       `json:"version"` // For optimistic locking
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBalance creates a zero balance for a user. Funds only enter through Credit.
func NewBalance(userID uuid.UUID) *Balance {
	now := time.Now()
	return &Balance{
		UserID:    userID,
		Amount:    0,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanDebit reports whether a debit of the given amount would be funded
func (b *Balance) CanDebit(amount int64) bool {
	return amount > 0 && amount <= b.Amount
}

// Debit subtracts the specified amount, refusing to drive the balance negative
func (b *Balance) Debit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if b.Amount < amount {
		return ErrInsufficientFunds
	}

	b.Amount -= amount
	b.UpdatedAt = time.Now()
	b.Version++
	return nil
}

// Credit adds the specified amount to the balance. There is no upper bound.
func (b *Balance) Credit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	b.Amount += amount
	b.UpdatedAt = time.Now()
	b.Version++
	return nil
}
