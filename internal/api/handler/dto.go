package handler

// RegisterRequest represents a request to create a new account
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=ANIMATOR CO_MANAGER"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse represents a user account in API responses
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// LoginResponse carries the issued access token
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// BalanceResponse represents a user balance in API responses
type BalanceResponse struct {
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	UpdatedAt string `json:"updated_at"`
}

// CreditRequest represents an earnings credit to a user's balance
type CreditRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// CreateWithdrawalRequest represents a request to create a new withdrawal
type CreateWithdrawalRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Operator    string `json:"operator" binding:"required"`
}

// UpdateWithdrawalRequest represents an edit of a pending withdrawal
type UpdateWithdrawalRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Operator    string `json:"operator" binding:"required"`
}

// RejectWithdrawalRequest carries an optional manual rejection reason
type RejectWithdrawalRequest struct {
	Reason string `json:"reason,omitempty"`
}

// WithdrawalResponse represents a withdrawal request in API responses
type WithdrawalResponse struct {
	ID                    string `json:"id"`
	UserID                string `json:"user_id"`
	Amount                int64  `json:"amount"`
	PhoneNumber           string `json:"phone_number"`
	Operator              string `json:"operator"`
	Status                string `json:"status"`
	FailureReason         string `json:"failure_reason,omitempty"`
	AmountDebited         bool   `json:"amount_debited"`
	CreatedAt             string `json:"created_at"`
	ScheduledProcessingAt string `json:"scheduled_processing_at"`
	ApprovedAt            string `json:"approved_at,omitempty"`
}

// WithdrawalListResponse represents a list of withdrawal requests
type WithdrawalListResponse struct {
	Withdrawals []WithdrawalResponse `json:"withdrawals"`
}

// ProcessSweepResponse reports the outcome of a manually triggered sweep
type ProcessSweepResponse struct {
	Processed int `json:"processed"`
}

// LedgerEntryResponse represents an audit trail entry in API responses
type LedgerEntryResponse struct {
	EntryID       string `json:"entry_id"`
	WithdrawalID  string `json:"withdrawal_id,omitempty"`
	Type          string `json:"type"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	BalanceAfter  int64  `json:"balance_after"`
	CreatedAt     string `json:"created_at"`
}

// LedgerListResponse represents a page of ledger entries
type LedgerListResponse struct {
	Entries []LedgerEntryResponse `json:"entries"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
