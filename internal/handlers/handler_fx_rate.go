package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	portssvc "github.com/SscSPs/vault_ledger/internal/core/ports/services"
	"github.com/SscSPs/vault_ledger/internal/dto"
	"github.com/SscSPs/vault_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type fxRateHandler struct {
	fxRateService portssvc.FXRateSvcFacade
}

func newFXRateHandler(fs portssvc.FXRateSvcFacade) *fxRateHandler {
	return &fxRateHandler{fxRateService: fs}
}

// registerFXRateRoutes registers routes related to exchange rates.
func registerFXRateRoutes(rg *gin.RouterGroup, fxRateService portssvc.FXRateSvcFacade) {
	h := newFXRateHandler(fxRateService)

	rates := rg.Group("/fx-rates")
	{
		rates.POST("", h.storeRate)
		rates.GET("/current/:base", h.getCurrentRates)
		rates.GET("/:from/:to", h.getRate)
	}
}

// storeRate godoc
// @Summary Store an exchange rate
// @Description Upserts the rate for a currency pair and date, optionally marking it current
// @Tags fx-rates
// @Accept  json
// @Produce  json
// @Param   rate body dto.StoreFXRateRequest true "Rate details"
// @Success 201 {object} dto.FXRateResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to store rate"
// @Security BearerAuth
// @Router /fx-rates [post]
func (h *fxRateHandler) storeRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.StoreFXRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for StoreRate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rate, err := h.fxRateService.StoreRate(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to store rate")
		return
	}

	logger.Info("FX rate stored", slog.String("from", rate.From), slog.String("to", rate.To), slog.String("rate", rate.Rate.String()))
	c.JSON(http.StatusCreated, dto.ToFXRateResponse(rate))
}

// getRate godoc
// @Summary Resolve an exchange rate
// @Description Resolves a rate directly, by inversion, or through the system base currency
// @Tags fx-rates
// @Produce  json
// @Param   from path string true "Source currency"
// @Param   to path string true "Target currency"
// @Param   date query string false "Rate date (YYYY-MM-DD)"
// @Success 200 {object} domain.ResolvedRate
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 422 {object} map[string]string "No rate available"
// @Failure 500 {object} map[string]string "Failed to resolve rate"
// @Security BearerAuth
// @Router /fx-rates/{from}/{to} [get]
func (h *fxRateHandler) getRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var q dto.GetFXRateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	date, err := endOfDay(q.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
		return
	}

	from, to := strings.ToUpper(c.Param("from")), strings.ToUpper(c.Param("to"))
	resolved, err := h.fxRateService.GetRate(c.Request.Context(), from, to, date)
	if err != nil {
		respondServiceError(c, logger.With(slog.String("from", from), slog.String("to", to)), err, "Failed to resolve rate")
		return
	}
	c.JSON(http.StatusOK, resolved)
}

// getCurrentRates godoc
// @Summary List current rates into a base currency
// @Tags fx-rates
// @Produce  json
// @Param   base path string true "Base currency"
// @Success 200 {object} dto.CurrentRatesResponse
// @Failure 400 {object} map[string]string "Invalid currency"
// @Failure 500 {object} map[string]string "Failed to list rates"
// @Security BearerAuth
// @Router /fx-rates/current/{base} [get]
func (h *fxRateHandler) getCurrentRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	base := strings.ToUpper(c.Param("base"))

	rates, err := h.fxRateService.GetAllCurrentRates(c.Request.Context(), base)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list current rates")
		return
	}
	c.JSON(http.StatusOK, dto.CurrentRatesResponse{Base: base, Rates: rates})
}
