package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/SscSPs/escrow_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	ledger := rg.Group("/ledger")
	{
		ledger.GET("/integrity", h.verifyIntegrity)

		entries := ledger.Group("/entries")
		entries.POST("", h.createEntry)
		entries.GET("", h.listEntries)
		entries.GET("/:entryID", h.getEntry)
		entries.POST("/:entryID/approve", h.approveEntry)
		entries.POST("/:entryID/reject", h.rejectEntry)
		entries.POST("/:entryID/reverse", h.reverseEntry)
	}
}

// createEntry godoc
// @Summary Post a ledger entry
// @Description Moves funds from the debit account to the credit account. Entries that require approval stay PENDING and reserve funds.
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   entry body dto.CreateEntryRequest true "Entry details"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 409 {object} map[string]string "Escrow category, escrow holding debit or chain conflict"
// @Failure 422 {object} map[string]interface{} "Insufficient balance"
// @Security BearerAuth
// @Router /ledger/entries [post]
func (h *ledgerHandler) createEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateEntryRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	userID, ok := callerID(c, logger)
	if !ok {
		return
	}
	req.CreatedBy = userID

	entry, err := h.ledgerService.CreateEntry(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create ledger entry")
		return
	}

	logger.Info("Ledger entry created",
		slog.String("entry_id", entry.EntryID),
		slog.Int64("sequence", entry.Sequence),
		slog.String("status", string(entry.Status)))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// listEntries godoc
// @Summary List ledger entries
// @Description Lists entries in chain order, optionally only those touching one account
// @Tags ledger
// @Produce  json
// @Param   accountId query string false "Account filter"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Security BearerAuth
// @Router /ledger/entries [get]
func (h *ledgerHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind list entries query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListEntries(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list ledger entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getEntry godoc
// @Summary Get a ledger entry
// @Tags ledger
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Security BearerAuth
// @Router /ledger/entries/{entryID} [get]
func (h *ledgerHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entry, err := h.ledgerService.GetEntry(c.Request.Context(), c.Param("entryID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve ledger entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// approveEntry godoc
// @Summary Approve a pending entry
// @Tags ledger
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is not pending or belongs to an escrow"
// @Security BearerAuth
// @Router /ledger/entries/{entryID}/approve [post]
func (h *ledgerHandler) approveEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := callerID(c, logger)
	if !ok {
		return
	}

	entry, err := h.ledgerService.ApproveEntry(c.Request.Context(), c.Param("entryID"), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to approve ledger entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// rejectEntry godoc
// @Summary Reject a pending entry
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   reason body dto.EntryReasonRequest true "Rejection reason"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is not pending or belongs to an escrow"
// @Security BearerAuth
// @Router /ledger/entries/{entryID}/reject [post]
func (h *ledgerHandler) rejectEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.EntryReasonRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	userID, ok := callerID(c, logger)
	if !ok {
		return
	}

	entry, err := h.ledgerService.RejectEntry(c.Request.Context(), c.Param("entryID"), req.Reason, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to reject ledger entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// reverseEntry godoc
// @Summary Reverse a completed entry
// @Description Appends a compensating entry with the accounts swapped
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   reason body dto.EntryReasonRequest true "Reversal reason"
// @Success 201 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry cannot be reversed or belongs to an escrow"
// @Failure 422 {object} map[string]interface{} "Insufficient balance"
// @Security BearerAuth
// @Router /ledger/entries/{entryID}/reverse [post]
func (h *ledgerHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.EntryReasonRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	userID, ok := callerID(c, logger)
	if !ok {
		return
	}

	reversal, err := h.ledgerService.ReverseEntry(c.Request.Context(), c.Param("entryID"), req.Reason, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to reverse ledger entry")
		return
	}
	logger.Info("Ledger entry reversed", slog.String("entry_id", c.Param("entryID")), slog.String("reversal_id", reversal.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(reversal))
}

// verifyIntegrity godoc
// @Summary Verify the ledger chain
// @Description Walks every entry and reports broken links or hash mismatches
// @Tags ledger
// @Produce  json
// @Success 200 {object} domain.IntegrityReport
// @Security BearerAuth
// @Router /ledger/integrity [get]
func (h *ledgerHandler) verifyIntegrity(c *gin.Context) {
	report := h.ledgerService.VerifyIntegrity(c.Request.Context())
	c.JSON(http.StatusOK, report)
}
