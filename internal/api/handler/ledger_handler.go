package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/laala-payout-service/internal/api/middleware"
	"github.com/laala-payout-service/internal/api/service"
	"github.com/laala-payout-service/internal/domain/ledger"
)

// LedgerHandler handles HTTP requests for the audit trail read surface
type LedgerHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(logger *slog.Logger, ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// GetHistory retrieves a paginated page of the user's ledger entries
func (h *LedgerHandler) GetHistory(c *gin.Context) {
	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	userID := middleware.GetUserID(c)

	entries, total, err := h.ledgerService.GetHistory(c.Request.Context(), userID, params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to get ledger history", "user_id", userID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	response := LedgerListResponse{Entries: make([]LedgerEntryResponse, 0, len(entries))}
	for _, entry := range entries {
		response.Entries = append(response.Entries, mapEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, response, params.Page, params.PerPage, int(total))
}

// mapEntryToResponse maps a ledger entry to a response DTO
func mapEntryToResponse(entry *ledger.Entry) LedgerEntryResponse {
	response := LedgerEntryResponse{
		EntryID:       entry.EntryID.String(),
		Type:          string(entry.Type),
		Amount:        entry.Amount,
		Status:        string(entry.Status),
		FailureReason: entry.FailureReason,
		BalanceAfter:  entry.BalanceAfter,
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.WithdrawalID != nil {
		response.WithdrawalID = entry.WithdrawalID.String()
	}
	return response
}
