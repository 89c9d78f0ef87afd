package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/SscSPs/escrow_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ownerHandler serves the owner directory.
type ownerHandler struct {
	ownerService   portssvc.OwnerSvcFacade
	accountService portssvc.AccountReaderSvc
}

func newOwnerHandler(os portssvc.OwnerSvcFacade, as portssvc.AccountReaderSvc) *ownerHandler {
	return &ownerHandler{ownerService: os, accountService: as}
}

func registerOwnerRoutes(rg *gin.RouterGroup, ownerService portssvc.OwnerSvcFacade, accountService portssvc.AccountReaderSvc) {
	h := newOwnerHandler(ownerService, accountService)

	owners := rg.Group("/owners")
	{
		owners.POST("", h.registerOwner)
		owners.GET("/:ownerID", h.getOwner)
		owners.PATCH("/:ownerID/status", h.updateOwnerStatus)
		owners.GET("/:ownerID/accounts", h.listOwnerAccounts)
	}
}

// registerOwner godoc
// @Summary Register an owner
// @Description Mirrors a user or store into the owner directory so accounts can be opened for it
// @Tags owners
// @Accept  json
// @Produce  json
// @Param   owner body dto.RegisterOwnerRequest true "Owner details"
// @Success 201 {object} dto.OwnerResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Owner already exists"
// @Failure 500 {object} map[string]string "Failed to register owner"
// @Security BearerAuth
// @Router /owners [post]
func (h *ownerHandler) registerOwner(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RegisterOwnerRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	userID, ok := callerID(c, logger)
	if !ok {
		return
	}

	owner, err := h.ownerService.RegisterOwner(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to register owner")
		return
	}

	logger.Info("Owner registered", slog.String("owner_id", owner.OwnerID), slog.String("kind", string(owner.Kind)))
	c.JSON(http.StatusCreated, dto.ToOwnerResponse(owner))
}

// getOwner godoc
// @Summary Get an owner
// @Tags owners
// @Produce  json
// @Param   ownerID path string true "Owner ID"
// @Success 200 {object} dto.OwnerResponse
// @Failure 404 {object} map[string]string "Owner not found"
// @Security BearerAuth
// @Router /owners/{ownerID} [get]
func (h *ownerHandler) getOwner(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	owner, err := h.ownerService.GetOwner(c.Request.Context(), c.Param("ownerID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve owner")
		return
	}
	c.JSON(http.StatusOK, dto.ToOwnerResponse(owner))
}

// updateOwnerStatus godoc
// @Summary Block or unblock an owner
// @Tags owners
// @Accept  json
// @Produce  json
// @Param   ownerID path string true "Owner ID"
// @Param   status body dto.UpdateOwnerStatusRequest true "New status"
// @Success 200 {object} dto.OwnerResponse
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 404 {object} map[string]string "Owner not found"
// @Security BearerAuth
// @Router /owners/{ownerID}/status [patch]
func (h *ownerHandler) updateOwnerStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateOwnerStatusRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	userID, ok := callerID(c, logger)
	if !ok {
		return
	}

	owner, err := h.ownerService.SetOwnerStatus(c.Request.Context(), c.Param("ownerID"), req.Status, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to update owner status")
		return
	}
	c.JSON(http.StatusOK, dto.ToOwnerResponse(owner))
}

// listOwnerAccounts godoc
// @Summary List an owner's accounts
// @Tags owners
// @Produce  json
// @Param   ownerID path string true "Owner ID"
// @Success 200 {array} dto.AccountResponse
// @Security BearerAuth
// @Router /owners/{ownerID}/accounts [get]
func (h *ownerHandler) listOwnerAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accounts, err := h.accountService.ListOwnerAccounts(c.Request.Context(), c.Param("ownerID"))
	if err != nil {
		respondError(c, logger, err, "Failed to list accounts")
		return
	}
	c.JSON(http.StatusOK, dto.ToListAccountResponse(accounts))
}
