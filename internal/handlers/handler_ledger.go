package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/vault_ledger/internal/core/ports/services"
	"github.com/SscSPs/vault_ledger/internal/dto"
	"github.com/SscSPs/vault_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler handles HTTP requests for transactions and ledger-wide reports.
type ledgerHandler struct {
	ledgerService    portssvc.LedgerSvcFacade
	reportingService portssvc.ReportingSvc
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade, rs portssvc.ReportingSvc) *ledgerHandler {
	return &ledgerHandler{
		ledgerService:    ls,
		reportingService: rs,
	}
}

// registerLedgerRoutes registers routes related to the ledger.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade, reportingService portssvc.ReportingSvc) {
	h := newLedgerHandler(ledgerService, reportingService)

	ledger := rg.Group("/ledger")
	{
		ledger.POST("/transactions", h.createTransaction)
		ledger.GET("/transactions/:transactionID", h.getTransaction)
		ledger.POST("/transactions/:transactionID/reverse", h.reverseTransaction)
		ledger.GET("/transactions/:transactionID/audit", h.auditTransaction)
		ledger.GET("/trial-balance", h.getTrialBalance)
	}
}

// createTransaction godoc
// @Summary Post a transaction
// @Description Posts a balanced set of entries atomically
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   transaction body dto.CreateTransactionRequest true "Transaction details"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input or unbalanced transaction"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 422 {object} map[string]string "Missing FX rate or insufficient balance"
// @Failure 500 {object} map[string]string "Failed to post transaction"
// @Security BearerAuth
// @Router /ledger/transactions [post]
func (h *ledgerHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.ledgerService.CreateTransaction(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to post transaction")
		return
	}

	logger.Info("Transaction posted", slog.String("transaction_id", txn.TransactionID), slog.String("type", string(txn.Type)))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// getTransaction godoc
// @Summary Get a transaction
// @Tags ledger
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transaction"
// @Security BearerAuth
// @Router /ledger/transactions/{transactionID} [get]
func (h *ledgerHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("transaction_id", c.Param("transactionID")))

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), c.Param("transactionID"))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// reverseTransaction godoc
// @Summary Reverse a transaction
// @Description Posts the mirror image of a transaction and links the two
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Param   reversal body dto.ReverseTransactionRequest true "Reversal reason"
// @Success 201 {object} dto.ReverseTransactionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Already reversed"
// @Failure 500 {object} map[string]string "Failed to reverse transaction"
// @Security BearerAuth
// @Router /ledger/transactions/{transactionID}/reverse [post]
func (h *ledgerHandler) reverseTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("transaction_id", c.Param("transactionID")))
	var req dto.ReverseTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reversal, err := h.ledgerService.ReverseTransaction(c.Request.Context(), c.Param("transactionID"), req.Reason, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to reverse transaction")
		return
	}

	logger.Info("Transaction reversed", slog.String("reversal_id", reversal.TransactionID))
	c.JSON(http.StatusCreated, dto.ReverseTransactionResponse{ReversalID: reversal.TransactionID})
}

// auditTransaction godoc
// @Summary Audit a transaction
// @Description Shows each entry with the balance of its account before and after it
// @Tags ledger
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} domain.TransactionAudit
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to audit transaction"
// @Security BearerAuth
// @Router /ledger/transactions/{transactionID}/audit [get]
func (h *ledgerHandler) auditTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("transaction_id", c.Param("transactionID")))

	audit, err := h.reportingService.AuditTransaction(c.Request.Context(), c.Param("transactionID"))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to audit transaction")
		return
	}
	c.JSON(http.StatusOK, audit)
}

// getTrialBalance godoc
// @Summary Generate trial balance report
// @Description Lists every active account with its base debit or credit balance, grouped by type
// @Tags ledger
// @Produce json
// @Param entityType query string false "Owning entity type"
// @Param entityId query string false "Owning entity ID"
// @Param baseCurrency query string false "Only entries in this base currency"
// @Param asOfDate query string false "Inclusive report date (YYYY-MM-DD)"
// @Success 200 {object} domain.TrialBalance
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to generate report"
// @Security BearerAuth
// @Router /ledger/trial-balance [get]
func (h *ledgerHandler) getTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var q dto.TrialBalanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	asOf, err := endOfDay(q.AsOfDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
		return
	}

	tb, err := h.reportingService.TrialBalance(c.Request.Context(), domain.TrialBalanceFilter{
		EntityType:   q.EntityType,
		EntityID:     q.EntityID,
		BaseCurrency: strings.ToUpper(q.BaseCurrency),
		AsOf:         asOf,
	})
	if err != nil {
		respondServiceError(c, logger, err, "Failed to generate trial balance report")
		return
	}

	if !tb.IsBalanced {
		logger.Error("Trial balance does not balance", slog.String("imbalance", tb.Imbalance.String()))
	}
	c.JSON(http.StatusOK, tb)
}
