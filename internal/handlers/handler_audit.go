package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/SscSPs/escrow_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

type auditHandler struct {
	auditService  portssvc.AuditSvcFacade
	ledgerService portssvc.LedgerVerifierSvc
}

func newAuditHandler(as portssvc.AuditSvcFacade, ls portssvc.LedgerVerifierSvc) *auditHandler {
	return &auditHandler{auditService: as, ledgerService: ls}
}

func registerAuditRoutes(rg *gin.RouterGroup, auditService portssvc.AuditSvcFacade, ledgerService portssvc.LedgerVerifierSvc) {
	h := newAuditHandler(auditService, ledgerService)

	audit := rg.Group("/audit")
	{
		audit.GET("/records", h.listRecords)
		audit.GET("/resources/:resourceType/:resourceID", h.listResourceHistory)
		audit.GET("/security-events", h.listSecurityEvents)
		audit.GET("/integrity", h.verifyIntegrity)
	}
}

// listRecords godoc
// @Summary List audit records
// @Tags audit
// @Produce  json
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListAuditRecordsResponse
// @Security BearerAuth
// @Router /audit/records [get]
func (h *auditHandler) listRecords(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListChainParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind audit query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.auditService.ListRecords(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list audit records")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// listResourceHistory godoc
// @Summary List the audit history of one resource
// @Tags audit
// @Produce  json
// @Param   resourceType path string true "OWNER, ACCOUNT, LEDGER_ENTRY, ESCROW or DISPUTE"
// @Param   resourceID path string true "Resource ID"
// @Success 200 {array} domain.AuditRecord
// @Failure 400 {object} map[string]string "Unknown resource type"
// @Security BearerAuth
// @Router /audit/resources/{resourceType}/{resourceID} [get]
func (h *auditHandler) listResourceHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	resourceType := domain.ResourceType(c.Param("resourceType"))
	switch resourceType {
	case domain.ResourceOwner, domain.ResourceAccount, domain.ResourceLedgerEntry, domain.ResourceEscrow, domain.ResourceDispute:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown resource type " + string(resourceType)})
		return
	}

	records, err := h.auditService.ListResourceHistory(c.Request.Context(), resourceType, c.Param("resourceID"))
	if err != nil {
		respondError(c, logger, err, "Failed to list resource history")
		return
	}
	c.JSON(http.StatusOK, records)
}

// listSecurityEvents godoc
// @Summary List security events
// @Tags audit
// @Produce  json
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListSecurityEventsResponse
// @Security BearerAuth
// @Router /audit/security-events [get]
func (h *auditHandler) listSecurityEvents(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListChainParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind security events query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.auditService.ListSecurityEvents(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list security events")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// verifyIntegrity godoc
// @Summary Verify every chain
// @Description Verifies the ledger, audit and security chains in one sweep
// @Tags audit
// @Produce  json
// @Success 200 {object} dto.IntegrityResponse
// @Security BearerAuth
// @Router /audit/integrity [get]
func (h *auditHandler) verifyIntegrity(c *gin.Context) {
	ctx := c.Request.Context()
	reports := []domain.IntegrityReport{
		h.ledgerService.VerifyIntegrity(ctx),
		h.auditService.VerifyAuditIntegrity(ctx),
		h.auditService.VerifySecurityIntegrity(ctx),
	}

	resp := dto.IntegrityResponse{IsValid: true, Reports: reports}
	for _, r := range reports {
		if !r.IsValid {
			resp.IsValid = false
			middleware.GetLoggerFromCtx(ctx).Error("Chain integrity check failed",
				slog.String("chain", string(r.Chain)),
				slog.Int("issues", len(r.Errors)))
		}
	}
	c.JSON(http.StatusOK, resp)
}
