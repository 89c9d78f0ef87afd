package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto an HTTP status and a JSON body.
// 5xx responses never echo the underlying error.
func respondError(c *gin.Context, logger *slog.Logger, err error, failure string) {
	var balanceErr *apperrors.InsufficientBalanceError
	var approvalErr *apperrors.StakeholderApprovalError

	switch {
	case errors.As(err, &balanceErr):
		logger.Warn(failure, slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     err.Error(),
			"accountId": balanceErr.AccountID,
			"available": balanceErr.Available,
			"requested": balanceErr.Requested,
		})
	case errors.As(err, &approvalErr):
		logger.Warn(failure, slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{
			"error":         err.Error(),
			"stakeholderId": approvalErr.StakeholderID,
			"reason":        approvalErr.Reason,
		})
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		logger.Warn(failure, slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn(failure, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn(failure, slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn(failure, slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn(failure, slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(failure, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": failure})
	}
}

// bindJSON binds the request body, answering 400 on failure.
func bindJSON(c *gin.Context, logger *slog.Logger, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logger.Warn("Failed to bind JSON request", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return false
	}
	return true
}

// callerID returns the authenticated user, answering 401 when absent.
func callerID(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}
