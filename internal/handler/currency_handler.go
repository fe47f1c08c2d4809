package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vmoraru/invoice-extraction-service/internal/currency"
)

// CurrencyHandler exposes reference exchange rates for operators
// cross-checking the configured FX divisor.
type CurrencyHandler struct {
	client *currency.Client
}

// NewCurrencyHandler creates the currency handler.
func NewCurrencyHandler(client *currency.Client) *CurrencyHandler {
	return &CurrencyHandler{client: client}
}

// GetExchangeRates returns the latest rates for a base currency
// @Summary Get reference exchange rates
// @Description Latest exchange rates for a base currency, for cross-checking the configured FX divisor
// @Tags currency
// @Produce json
// @Param base query string false "Base currency (default: EUR)"
// @Success 200 {object} currency.ExchangeRates "Exchange rates"
// @Failure 502 {object} model.ErrorResponse "Upstream rates API failed"
// @Router /v1/currency/rates [get]
func (h *CurrencyHandler) GetExchangeRates(c *gin.Context) {
	base := c.DefaultQuery("base", "EUR")

	rates, err := h.client.GetLatestRates(c.Request.Context(), base)
	if err != nil {
		respondError(c, 502, "RATES_UNAVAILABLE", "failed to fetch exchange rates: "+err.Error())
		return
	}

	respondOK(c, rates)
}
