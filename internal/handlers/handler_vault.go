package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/vault_ledger/internal/core/ports/services"
	"github.com/SscSPs/vault_ledger/internal/dto"
	"github.com/SscSPs/vault_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// vaultHandler handles HTTP requests for vaults and their money movements.
type vaultHandler struct {
	vaultService       portssvc.VaultSvcFacade
	revaluationService portssvc.RevaluationSvc
}

func newVaultHandler(vs portssvc.VaultSvcFacade, rs portssvc.RevaluationSvc) *vaultHandler {
	return &vaultHandler{
		vaultService:       vs,
		revaluationService: rs,
	}
}

// registerVaultRoutes registers routes related to vaults.
func registerVaultRoutes(rg *gin.RouterGroup, vaultService portssvc.VaultSvcFacade, revaluationService portssvc.RevaluationSvc) {
	h := newVaultHandler(vaultService, revaluationService)

	vaults := rg.Group("/vaults")
	{
		vaults.POST("", h.createVault)
		vaults.POST("/transfer", h.transfer)
		vaults.GET("/:vaultID", h.getVault)
		vaults.GET("/:vaultID/balances", h.getBalances)
		vaults.POST("/:vaultID/deposit", h.deposit)
		vaults.POST("/:vaultID/withdraw", h.withdraw)
		vaults.POST("/:vaultID/lock", h.lock)
		vaults.POST("/:vaultID/unlock", h.unlock)
		vaults.POST("/:vaultID/revalue", h.revalue)
		vaults.GET("/:vaultID/snapshots", h.listSnapshots)
	}
}

// userOrAbort returns the caller identity, answering 401 when there is none.
func userOrAbort(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return userID, ok
}

// createVault godoc
// @Summary Create a vault
// @Description Creates a vault with its root account and system counter-accounts
// @Tags vaults
// @Accept  json
// @Produce  json
// @Param   vault body dto.CreateVaultRequest true "Vault details"
// @Success 201 {object} domain.Vault
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to create vault"
// @Security BearerAuth
// @Router /vaults [post]
func (h *vaultHandler) createVault(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateVaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateVault", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := userOrAbort(c, logger)
	if !ok {
		return
	}

	vault, err := h.vaultService.CreateVault(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create vault")
		return
	}

	logger.Info("Vault created", slog.String("vault_id", vault.VaultID))
	c.JSON(http.StatusCreated, vault)
}

// getVault godoc
// @Summary Get a vault
// @Tags vaults
// @Produce  json
// @Param   vaultID path string true "Vault ID"
// @Success 200 {object} domain.Vault
// @Failure 404 {object} map[string]string "Vault not found"
// @Failure 500 {object} map[string]string "Failed to retrieve vault"
// @Security BearerAuth
// @Router /vaults/{vaultID} [get]
func (h *vaultHandler) getVault(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("vault_id", c.Param("vaultID")))

	vault, err := h.vaultService.GetVault(c.Request.Context(), c.Param("vaultID"))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve vault")
		return
	}
	c.JSON(http.StatusOK, vault)
}

// getBalances godoc
// @Summary Get vault balances
// @Description Lists every currency position valued into the vault base currency
// @Tags vaults
// @Produce  json
// @Param   vaultID path string true "Vault ID"
// @Success 200 {object} dto.VaultBalancesResponse
// @Failure 404 {object} map[string]string "Vault not found"
// @Failure 500 {object} map[string]string "Failed to compute balances"
// @Security BearerAuth
// @Router /vaults/{vaultID}/balances [get]
func (h *vaultHandler) getBalances(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("vault_id", c.Param("vaultID")))

	balances, err := h.vaultService.GetBalances(c.Request.Context(), c.Param("vaultID"))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to compute vault balances")
		return
	}
	c.JSON(http.StatusOK, dto.ToVaultBalancesResponse(balances))
}

// deposit godoc
// @Summary Deposit into a vault
// @Tags vaults
// @Accept  json
// @Produce  json
// @Param   vaultID path string true "Vault ID"
// @Param   deposit body dto.MovementRequest true "Deposit details"
// @Success 201 {object} dto.DepositResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Vault not found"
// @Failure 409 {object} map[string]string "Vault locked"
// @Failure 422 {object} map[string]string "Missing FX rate"
// @Failure 500 {object} map[string]string "Failed to deposit"
// @Security BearerAuth
// @Router /vaults/{vaultID}/deposit [post]
func (h *vaultHandler) deposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("vault_id", c.Param("vaultID")))
	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := userOrAbort(c, logger)
	if !ok {
		return
	}

	mv, err := h.vaultService.Deposit(c.Request.Context(), c.Param("vaultID"), req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to deposit")
		return
	}

	logger.Info("Deposit posted", slog.String("transaction_id", mv.TransactionID), slog.String("currency", mv.CurrencyCode))
	c.JSON(http.StatusCreated, dto.DepositResponse{
		TransactionID: mv.TransactionID,
		BaseAmount:    mv.BaseAmount,
		NewBalance:    mv.NewBalance,
	})
}

// withdraw godoc
// @Summary Withdraw from a vault
// @Description Withdraws an amount and realizes the FX gain or loss against the position cost basis
// @Tags vaults
// @Accept  json
// @Produce  json
// @Param   vaultID path string true "Vault ID"
// @Param   withdrawal body dto.MovementRequest true "Withdrawal details"
// @Success 201 {object} dto.WithdrawResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Vault not found"
// @Failure 409 {object} map[string]string "Vault locked"
// @Failure 422 {object} map[string]string "Insufficient balance or missing FX rate"
// @Failure 500 {object} map[string]string "Failed to withdraw"
// @Security BearerAuth
// @Router /vaults/{vaultID}/withdraw [post]
func (h *vaultHandler) withdraw(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("vault_id", c.Param("vaultID")))
	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := userOrAbort(c, logger)
	if !ok {
		return
	}

	mv, err := h.vaultService.Withdraw(c.Request.Context(), c.Param("vaultID"), req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to withdraw")
		return
	}

	logger.Info("Withdrawal posted", slog.String("transaction_id", mv.TransactionID), slog.String("realized_fx", mv.RealizedFxGain.String()))
	c.JSON(http.StatusCreated, dto.WithdrawResponse{
		TransactionID:  mv.TransactionID,
		BaseAmount:     mv.BaseAmount,
		NewBalance:     mv.NewBalance,
		RealizedFxGain: mv.RealizedFxGain,
	})
}

// transfer godoc
// @Summary Transfer between vaults
// @Tags vaults
// @Accept  json
// @Produce  json
// @Param   transfer body dto.TransferRequest true "Transfer details"
// @Success 201 {object} dto.TransferResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Vault not found"
// @Failure 409 {object} map[string]string "Vault locked"
// @Failure 422 {object} map[string]string "Insufficient balance"
// @Failure 500 {object} map[string]string "Failed to transfer"
// @Security BearerAuth
// @Router /vaults/transfer [post]
func (h *vaultHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := userOrAbort(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("source_vault_id", req.SourceVaultID), slog.String("destination_vault_id", req.DestinationVaultID))
	res, err := h.vaultService.Transfer(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to transfer")
		return
	}

	logger.Info("Transfer posted", slog.String("transaction_id", res.TransactionID))
	c.JSON(http.StatusCreated, dto.TransferResponse{
		TransactionID: res.TransactionID,
		SrcBalance:    res.SourceBalance,
		DstBalance:    res.DestinationBalance,
	})
}

// lock godoc
// @Summary Lock a vault
// @Tags vaults
// @Accept  json
// @Param   vaultID path string true "Vault ID"
// @Param   lock body dto.LockVaultRequest true "Lock reason"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Vault not found"
// @Failure 500 {object} map[string]string "Failed to lock vault"
// @Security BearerAuth
// @Router /vaults/{vaultID}/lock [post]
func (h *vaultHandler) lock(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("vault_id", c.Param("vaultID")))
	var req dto.LockVaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := userOrAbort(c, logger)
	if !ok {
		return
	}

	if err := h.vaultService.Lock(c.Request.Context(), c.Param("vaultID"), req.Reason, userID); err != nil {
		respondServiceError(c, logger, err, "Failed to lock vault")
		return
	}
	logger.Info("Vault locked", slog.String("reason", req.Reason))
	c.Status(http.StatusNoContent)
}

// unlock godoc
// @Summary Unlock a vault
// @Tags vaults
// @Param   vaultID path string true "Vault ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Vault not found"
// @Failure 500 {object} map[string]string "Failed to unlock vault"
// @Security BearerAuth
// @Router /vaults/{vaultID}/unlock [post]
func (h *vaultHandler) unlock(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("vault_id", c.Param("vaultID")))
	userID, ok := userOrAbort(c, logger)
	if !ok {
		return
	}

	if err := h.vaultService.Unlock(c.Request.Context(), c.Param("vaultID"), userID); err != nil {
		respondServiceError(c, logger, err, "Failed to unlock vault")
		return
	}
	logger.Info("Vault unlocked")
	c.Status(http.StatusNoContent)
}

// revalue godoc
// @Summary Revalue a vault
// @Description Marks every foreign position to market and records snapshots. Nothing is posted to the ledger.
// @Tags vaults
// @Accept  json
// @Produce  json
// @Param   vaultID path string true "Vault ID"
// @Param   rates body dto.RevalueRequest false "Rates per currency into the vault base currency"
// @Success 200 {object} domain.RevaluationResult
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Vault not found"
// @Failure 409 {object} map[string]string "Vault locked"
// @Failure 422 {object} map[string]string "Missing FX rate"
// @Failure 500 {object} map[string]string "Failed to revalue vault"
// @Security BearerAuth
// @Router /vaults/{vaultID}/revalue [post]
func (h *vaultHandler) revalue(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("vault_id", c.Param("vaultID")))
	var req dto.RevalueRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}
	userID, ok := userOrAbort(c, logger)
	if !ok {
		return
	}

	res, err := h.revaluationService.RevaluePositions(c.Request.Context(), c.Param("vaultID"), req.Rates, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to revalue vault")
		return
	}

	logger.Info("Vault revalued", slog.Int("positions", len(res.Snapshots)), slog.String("total_delta", res.TotalDelta.String()))
	c.JSON(http.StatusOK, res)
}

// listSnapshots godoc
// @Summary List revaluation snapshots
// @Tags vaults
// @Produce  json
// @Param   vaultID path string true "Vault ID"
// @Param   limit query int false "Maximum number of snapshots" default(50)
// @Success 200 {array} domain.FXValuationSnapshot
// @Failure 404 {object} map[string]string "Vault not found"
// @Failure 500 {object} map[string]string "Failed to list snapshots"
// @Security BearerAuth
// @Router /vaults/{vaultID}/snapshots [get]
func (h *vaultHandler) listSnapshots(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("vault_id", c.Param("vaultID")))
	q := dto.SnapshotsQuery{Limit: 50}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	snapshots, err := h.revaluationService.ListSnapshots(c.Request.Context(), c.Param("vaultID"), q.Limit)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list snapshots")
		return
	}
	c.JSON(http.StatusOK, snapshots)
}
