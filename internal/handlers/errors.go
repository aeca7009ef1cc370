package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// errorToStatusCode maps service errors to HTTP status codes.
func errorToStatusCode(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrUnbalancedTransaction),
		errors.Is(err, apperrors.ErrInvalidCurrency):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrVaultLocked),
		errors.Is(err, apperrors.ErrAlreadyReversed),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInsufficientBalance),
		errors.Is(err, apperrors.ErrMissingFxRate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err as a JSON error. Internal failures are logged with their
// cause and answered with fallback so storage details never reach the caller.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	status := errorToStatusCode(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	logger.Warn(fallback, slog.String("error", err.Error()), slog.Int("status", status))
	c.JSON(status, gin.H{"error": err.Error()})
}
