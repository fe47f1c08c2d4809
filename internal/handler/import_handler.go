package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/vmoraru/invoice-extraction-service/internal/config"
	"github.com/vmoraru/invoice-extraction-service/internal/importer"
	"github.com/vmoraru/invoice-extraction-service/internal/model"
	"github.com/vmoraru/invoice-extraction-service/internal/pricing"
)

// ImportHandler handles pricing preview and import requests.
type ImportHandler struct {
	service *importer.Service
	cfg     *config.Config
	logger  *slog.Logger
}

// NewImportHandler creates the import handler.
func NewImportHandler(service *importer.Service, cfg *config.Config, logger *slog.Logger) *ImportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportHandler{service: service, cfg: cfg, logger: logger}
}

// PreviewPricing prices rows without writing anything
// @Summary Preview landed-cost pricing for invoice rows
// @Description Compute EUR pricing tiers and product match candidates per row
// @Tags import
// @Accept json
// @Produce json
// @Param request body model.PreviewRequest true "Rows to price"
// @Success 200 {object} model.PreviewResponse "Per-row pricing outcomes"
// @Failure 400 {object} model.ErrorResponse "Malformed request body"
// @Failure 401 {object} model.ErrorResponse "Missing or invalid token"
// @Failure 429 {object} model.ErrorResponse "Rate limit exceeded"
// @Router /v1/invoice/preview-pricing [post]
func (h *ImportHandler) PreviewPricing(c *gin.Context) {
	var req model.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", "request body must carry a rows array: "+err.Error())
		return
	}

	respondOK(c, h.service.PreviewPricing(c.Request.Context(), &req))
}

// Import applies rows to the product repository
// @Summary Import invoice rows into the inventory
// @Description Create or update products and record stock movements, idempotently
// @Tags import
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Client-chosen idempotency key"
// @Param request body model.ImportRequest true "Rows to import"
// @Success 200 {object} model.ImportResponse "Import outcome"
// @Failure 400 {object} model.ErrorResponse "Malformed request or missing idempotency key"
// @Failure 401 {object} model.ErrorResponse "Missing or invalid token"
// @Failure 409 {object} model.ErrorResponse "Idempotency key reused with a different payload"
// @Router /v1/invoice/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	var req model.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", "request body must carry a rows array: "+err.Error())
		return
	}

	response, err := h.service.Import(c.Request.Context(), c.GetHeader("Idempotency-Key"), &req)
	if err != nil {
		var contractErr *model.ContractError
		if errors.As(err, &contractErr) {
			respondContractError(c, contractErr)
			return
		}
		h.logger.Error("import failed", "error", err)
		respondInternalServerError(c, "import failed")
		return
	}

	respondOK(c, response)
}

// PricingConstants returns the configured pricing inputs
// @Summary Get pricing constants
// @Description Return the FX divisor, transport rate and markup tiers in use
// @Tags import
// @Produce json
// @Success 200 {object} model.PricingConstants "Configured pricing constants"
// @Router /v1/pricing/constants [get]
func (h *ImportHandler) PricingConstants(c *gin.Context) {
	respondOK(c, model.PricingConstants{
		FxLeiToEUR:         h.cfg.FxLeiToEUR,
		TransportRatePerKG: h.cfg.TransportRatePerKG,
		Markups:            pricing.Markups(),
	})
}
