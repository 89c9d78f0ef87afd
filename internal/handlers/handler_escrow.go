package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/SscSPs/escrow_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

type escrowHandler struct {
	escrowService portssvc.EscrowSvcFacade
}

func newEscrowHandler(es portssvc.EscrowSvcFacade) *escrowHandler {
	return &escrowHandler{escrowService: es}
}

func registerEscrowRoutes(rg *gin.RouterGroup, escrowService portssvc.EscrowSvcFacade) {
	h := newEscrowHandler(escrowService)

	escrows := rg.Group("/escrows")
	{
		escrows.POST("", h.createEscrow)
		escrows.GET("/:escrowID", h.getEscrow)
		escrows.POST("/:escrowID/approve", h.approveEscrow)
		escrows.POST("/:escrowID/release", h.releaseEscrow)
		escrows.POST("/:escrowID/refund", h.refundEscrow)
		escrows.POST("/:escrowID/disputes", h.raiseDispute)
	}

	disputes := rg.Group("/disputes")
	{
		disputes.GET("/:disputeID", h.getDispute)
		disputes.POST("/:disputeID/resolve", h.resolveDispute)
	}
}

// createEscrow godoc
// @Summary Create an escrow
// @Description Moves the total amount from the buyer's account into escrow holding
// @Tags escrows
// @Accept  json
// @Produce  json
// @Param   escrow body dto.CreateEscrowRequest true "Escrow details"
// @Success 201 {object} dto.EscrowResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Buyer or seller has no account"
// @Failure 422 {object} map[string]interface{} "Insufficient balance"
// @Security BearerAuth
// @Router /escrows [post]
func (h *escrowHandler) createEscrow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateEscrowRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	userID, ok := callerID(c, logger)
	if !ok {
		return
	}
	req.CreatedBy = userID

	escrow, err := h.escrowService.CreateEscrow(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create escrow")
		return
	}

	logger.Info("Escrow created",
		slog.String("escrow_id", escrow.EscrowID),
		slog.String("escrow_number", escrow.EscrowNumber),
		slog.String("status", string(escrow.Status)))
	c.JSON(http.StatusCreated, dto.ToEscrowResponse(escrow))
}

// getEscrow godoc
// @Summary Get an escrow
// @Tags escrows
// @Produce  json
// @Param   escrowID path string true "Escrow ID"
// @Success 200 {object} dto.EscrowResponse
// @Failure 404 {object} map[string]string "Escrow not found"
// @Security BearerAuth
// @Router /escrows/{escrowID} [get]
func (h *escrowHandler) getEscrow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	escrow, err := h.escrowService.GetEscrow(c.Request.Context(), c.Param("escrowID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve escrow")
		return
	}
	c.JSON(http.StatusOK, dto.ToEscrowResponse(escrow))
}

// approveEscrow godoc
// @Summary Approve a pending escrow
// @Tags escrows
// @Produce  json
// @Param   escrowID path string true "Escrow ID"
// @Success 200 {object} dto.EscrowResponse
// @Failure 404 {object} map[string]string "Escrow not found"
// @Failure 409 {object} map[string]string "Escrow is not pending"
// @Security BearerAuth
// @Router /escrows/{escrowID}/approve [post]
func (h *escrowHandler) approveEscrow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := callerID(c, logger)
	if !ok {
		return
	}

	escrow, err := h.escrowService.ApproveEscrow(c.Request.Context(), c.Param("escrowID"), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to approve escrow")
		return
	}
	c.JSON(http.StatusOK, dto.ToEscrowResponse(escrow))
}

// releaseEscrow godoc
// @Summary Release escrowed funds to the seller
// @Description Releases the given amount, or the unresolved remainder when omitted
// @Tags escrows
// @Accept  json
// @Produce  json
// @Param   escrowID path string true "Escrow ID"
// @Param   release body dto.ReleaseEscrowRequest true "Release details"
// @Success 200 {object} dto.EscrowResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Escrow not found"
// @Failure 409 {object} map[string]interface{} "Invalid state or missing stakeholder approval"
// @Security BearerAuth
// @Router /escrows/{escrowID}/release [post]
func (h *escrowHandler) releaseEscrow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReleaseEscrowRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	userID, ok := callerID(c, logger)
	if !ok {
		return
	}
	req.EscrowID = c.Param("escrowID")
	req.ReleasedBy = userID

	escrow, err := h.escrowService.ReleaseEscrow(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to release escrow")
		return
	}
	logger.Info("Escrow released", slog.String("escrow_id", escrow.EscrowID), slog.String("status", string(escrow.Status)))
	c.JSON(http.StatusOK, dto.ToEscrowResponse(escrow))
}

// refundEscrow godoc
// @Summary Refund escrowed funds to the buyer
// @Tags escrows
// @Accept  json
// @Produce  json
// @Param   escrowID path string true "Escrow ID"
// @Param   refund body dto.RefundEscrowRequest true "Refund details"
// @Success 200 {object} dto.EscrowResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Escrow not found"
// @Failure 409 {object} map[string]string "Invalid state"
// @Security BearerAuth
// @Router /escrows/{escrowID}/refund [post]
func (h *escrowHandler) refundEscrow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RefundEscrowRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	userID, ok := callerID(c, logger)
	if !ok {
		return
	}
	req.EscrowID = c.Param("escrowID")
	req.RefundedBy = userID

	escrow, err := h.escrowService.RefundEscrow(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to refund escrow")
		return
	}
	logger.Info("Escrow refunded", slog.String("escrow_id", escrow.EscrowID), slog.String("status", string(escrow.Status)))
	c.JSON(http.StatusOK, dto.ToEscrowResponse(escrow))
}

// raiseDispute godoc
// @Summary Raise a dispute on an escrow
// @Description Freezes the escrow until the dispute is resolved. The raiser must be the buyer or the seller.
// @Tags escrows
// @Accept  json
// @Produce  json
// @Param   escrowID path string true "Escrow ID"
// @Param   dispute body dto.RaiseDisputeRequest true "Dispute details"
// @Success 201 {object} dto.EscrowDisputeResponse
// @Failure 400 {object} map[string]string "Validation error or raiser is not a party"
// @Failure 409 {object} map[string]string "Escrow cannot be disputed"
// @Security BearerAuth
// @Router /escrows/{escrowID}/disputes [post]
func (h *escrowHandler) raiseDispute(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RaiseDisputeRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	userID, ok := callerID(c, logger)
	if !ok {
		return
	}
	req.EscrowID = c.Param("escrowID")
	if req.RaisedBy == "" {
		req.RaisedBy = userID
	}

	escrow, dispute, err := h.escrowService.RaiseDispute(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to raise dispute")
		return
	}
	logger.Info("Dispute raised", slog.String("escrow_id", escrow.EscrowID), slog.String("dispute_id", dispute.DisputeID))
	c.JSON(http.StatusCreated, dto.EscrowDisputeResponse{Escrow: dto.ToEscrowResponse(escrow), Dispute: *dispute})
}

// getDispute godoc
// @Summary Get a dispute
// @Tags disputes
// @Produce  json
// @Param   disputeID path string true "Dispute ID"
// @Success 200 {object} domain.Dispute
// @Failure 404 {object} map[string]string "Dispute not found"
// @Security BearerAuth
// @Router /disputes/{disputeID} [get]
func (h *escrowHandler) getDispute(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	dispute, err := h.escrowService.GetDispute(c.Request.Context(), c.Param("disputeID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve dispute")
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// resolveDispute godoc
// @Summary Resolve a dispute
// @Description Splits the remainder between seller and buyer. Only the assigned resolver may call this.
// @Tags disputes
// @Accept  json
// @Produce  json
// @Param   disputeID path string true "Dispute ID"
// @Param   resolution body dto.ResolveDisputeRequest true "Resolution"
// @Success 200 {object} dto.EscrowDisputeResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Caller may not resolve disputes"
// @Failure 409 {object} map[string]string "Dispute already resolved"
// @Security BearerAuth
// @Router /disputes/{disputeID}/resolve [post]
func (h *escrowHandler) resolveDispute(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ResolveDisputeRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	userID, ok := callerID(c, logger)
	if !ok {
		return
	}
	req.DisputeID = c.Param("disputeID")
	req.ResolvedBy = userID

	escrow, dispute, err := h.escrowService.ResolveDispute(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to resolve dispute")
		return
	}
	logger.Info("Dispute resolved",
		slog.String("dispute_id", dispute.DisputeID),
		slog.String("escrow_id", escrow.EscrowID),
		slog.String("resolution", string(req.Resolution)))
	c.JSON(http.StatusOK, dto.EscrowDisputeResponse{Escrow: dto.ToEscrowResponse(escrow), Dispute: *dispute})
}
