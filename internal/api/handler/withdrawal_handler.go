package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/laala-payout-service/internal/api/middleware"
	"github.com/laala-payout-service/internal/api/service"
	"github.com/laala-payout-service/internal/domain/balance"
	"github.com/laala-payout-service/internal/domain/withdrawal"
)

// SweepRunner triggers one immediate pass over due withdrawal requests
type SweepRunner interface {
	RunOnce(ctx context.Context) (int, error)
}

// WithdrawalHandler handles HTTP requests for withdrawal request operations
type WithdrawalHandler struct {
	withdrawalService service.WithdrawalService
	sweeper           SweepRunner
	logger            *slog.Logger
}

// NewWithdrawalHandler creates a new withdrawal handler
func NewWithdrawalHandler(logger *slog.Logger, withdrawalService service.WithdrawalService, sweeper SweepRunner) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalService: withdrawalService,
		sweeper:           sweeper,
		logger:            logger,
	}
}

// Create handles creation of a new withdrawal request
func (h *WithdrawalHandler) Create(c *gin.Context) {
	var req CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	userID := middleware.GetUserID(c)

	request, err := h.withdrawalService.Create(c.Request.Context(), userID, req.Amount, req.PhoneNumber, req.Operator)
	if err != nil {
		h.respondWithdrawalError(c, err)
		return
	}

	RespondCreated(c, mapWithdrawalToResponse(request))
}

// List retrieves the authenticated user's withdrawal requests, newest first
func (h *WithdrawalHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	requests, err := h.withdrawalService.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list withdrawal requests", "user_id", userID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	response := WithdrawalListResponse{Withdrawals: make([]WithdrawalResponse, 0, len(requests))}
	for _, request := range requests {
		response.Withdrawals = append(response.Withdrawals, mapWithdrawalToResponse(request))
	}

	RespondOK(c, response)
}

// Update edits a pending withdrawal request
func (h *WithdrawalHandler) Update(c *gin.Context) {
	id, ok := h.parseRequestID(c)
	if !ok {
		return
	}

	var req UpdateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	userID := middleware.GetUserID(c)

	request, err := h.withdrawalService.Update(c.Request.Context(), userID, id, req.Amount, req.PhoneNumber, req.Operator)
	if err != nil {
		h.respondWithdrawalError(c, err)
		return
	}

	RespondOK(c, mapWithdrawalToResponse(request))
}

// Delete removes a withdrawal request while it is still pending
func (h *WithdrawalHandler) Delete(c *gin.Context) {
	id, ok := h.parseRequestID(c)
	if !ok {
		return
	}

	userID := middleware.GetUserID(c)

	if err := h.withdrawalService.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondWithdrawalError(c, err)
		return
	}

	RespondNoContent(c)
}

// Reject manually rejects a pending withdrawal request (co-manager only)
func (h *WithdrawalHandler) Reject(c *gin.Context) {
	id, ok := h.parseRequestID(c)
	if !ok {
		return
	}

	// The body and reason are optional
	var req RejectWithdrawalRequest
	_ = c.ShouldBindJSON(&req)

	request, err := h.withdrawalService.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.respondWithdrawalError(c, err)
		return
	}

	RespondOK(c, mapWithdrawalToResponse(request))
}

// Process triggers one immediate sweep of due withdrawal requests
func (h *WithdrawalHandler) Process(c *gin.Context) {
	processed, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		h.logger.Error("Manual sweep failed", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, ProcessSweepResponse{Processed: processed})
}

func (h *WithdrawalHandler) parseRequestID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid withdrawal ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid withdrawal ID")
		return uuid.Nil, false
	}
	return id, true
}

// respondWithdrawalError maps domain errors to HTTP responses
func (h *WithdrawalHandler) respondWithdrawalError(c *gin.Context, err error) {
	var notFoundErr withdrawal.ErrRequestNotFound
	var invalidStateErr withdrawal.ErrInvalidState
	var balanceNotFoundErr balance.ErrBalanceNotFound

	switch {
	case errors.As(err, &notFoundErr):
		RespondNotFound(c, "Withdrawal request not found")
	case errors.Is(err, service.ErrNotRequestOwner):
		RespondForbidden(c, "Withdrawal request belongs to another user")
	case errors.As(err, &invalidStateErr):
		RespondConflict(c, err.Error())
	case errors.Is(err, balance.ErrInsufficientFunds):
		RespondUnprocessable(c, "INSUFFICIENT_FUNDS", "Balance is insufficient for this amount")
	case errors.As(err, &balanceNotFoundErr):
		RespondNotFound(c, "Balance not found")
	case errors.Is(err, withdrawal.ErrInvalidAmount),
		errors.Is(err, withdrawal.ErrMissingDestination),
		errors.Is(err, withdrawal.ErrNotPending):
		RespondBadRequest(c, err.Error())
	default:
		h.logger.Error("Withdrawal operation failed", "error", err)
		RespondInternalError(c)
	}
}

// mapWithdrawalToResponse maps a withdrawal request entity to a response DTO
func mapWithdrawalToResponse(req *withdrawal.Request) WithdrawalResponse {
	response := WithdrawalResponse{
		ID:                    req.ID.String(),
		UserID:                req.UserID.String(),
		Amount:                req.Amount,
		PhoneNumber:           req.PhoneNumber,
		Operator:              req.Operator,
		Status:                string(req.Status),
		FailureReason:         req.FailureReason,
		AmountDebited:         req.AmountDebited,
		CreatedAt:             req.CreatedAt.Format(time.RFC3339),
		ScheduledProcessingAt: req.ScheduledProcessingAt.Format(time.RFC3339),
	}
	if req.ApprovedAt != nil {
		response.ApprovedAt = req.ApprovedAt.Format(time.RFC3339)
	}
	return response
}
