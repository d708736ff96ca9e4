package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/laala-payout-service/internal/api/middleware"
	"github.com/laala-payout-service/internal/api/service"
	"github.com/laala-payout-service/internal/domain/balance"
)

// BalanceHandler handles HTTP requests for balance operations
type BalanceHandler struct {
	balanceService service.BalanceService
	logger         *slog.Logger
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(logger *slog.Logger, balanceService service.BalanceService) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
		logger:         logger,
	}
}

// Get retrieves the authenticated user's current balance
func (h *BalanceHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)

	bal, err := h.balanceService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		var notFoundErr balance.ErrBalanceNotFound
		if errors.As(err, &notFoundErr) {
			RespondNotFound(c, "Balance not found")
			return
		}
		h.logger.Error("Failed to get balance", "user_id", userID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapBalanceToResponse(bal))
}

// Credit adds earnings to a user's balance (co-manager only)
func (h *BalanceHandler) Credit(c *gin.Context) {
	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		RespondBadRequest(c, "Invalid user ID")
		return
	}

	bal, err := h.balanceService.Credit(c.Request.Context(), userID, req.Amount, middleware.GetCorrelationID(c))
	if err != nil {
		var notFoundErr balance.ErrBalanceNotFound
		if errors.As(err, &notFoundErr) {
			RespondNotFound(c, "Balance not found")
			return
		}
		if errors.Is(err, balance.ErrInvalidAmount) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to credit balance", "user_id", req.UserID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapBalanceToResponse(bal))
}

// mapBalanceToResponse maps a balance entity to a balance response DTO
func mapBalanceToResponse(bal *balance.Balance) BalanceResponse {
	return BalanceResponse{
		UserID:    bal.UserID.String(),
		Amount:    bal.Amount,
		UpdatedAt: bal.UpdatedAt.Format(time.RFC3339),
	}
}
