package model

import "github.com/vmoraru/invoice-extraction-service/internal/pricing"

// Row status values used by preview and import responses.
const (
	RowStatusOK         = "ok"
	RowStatusNeedsInput = "needs_input"
	RowStatusError      = "error"
)

// Machine-readable row message codes.
const (
	CodeMissingWeight          = "MISSING_WEIGHT"
	CodeInvalidQuantity        = "INVALID_QUANTITY"
	CodeInvalidLineTotal       = "INVALID_LINE_TOTAL"
	CodeInvalidWeight          = "INVALID_WEIGHT"
	CodeInvalidFxRate          = "INVALID_FX_RATE"
	CodeInvalidTransportRate   = "INVALID_TRANSPORT_RATE"
	CodeComputationError       = "COMPUTATION_ERROR"
	CodeAmbiguousNameMatch     = "AMBIGUOUS_NAME_MATCH"
	CodeLiquidDensityAssumed   = "LIQUID_DENSITY_ASSUMPTION"
	CodeIdempotencyKeyRequired = "IDEMPOTENCY_KEY_REQUIRED"
	CodeIdempotencyConflict    = "IDEMPOTENCY_CONFLICT"
)

// PreviewRow is one line submitted for pricing preview or import.
type PreviewRow struct {
	RowID        string   `json:"row_id"`
	Name         string   `json:"name"`
	Barcode      *string  `json:"barcode,omitempty"`
	Quantity     float64  `json:"quantity"`
	LineTotalLei float64  `json:"line_total_lei"`
	WeightKg     *float64 `json:"weight_kg"`
}

// PreviewRequest is the body for POST /v1/invoice/preview-pricing.
type PreviewRequest struct {
	Supplier *string      `json:"supplier,omitempty"`
	Rows     []PreviewRow `json:"rows" binding:"required"`
}

// MatchCandidate describes the existing product a row resolved to.
type MatchCandidate struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	MatchedBy string `json:"matched_by"` // "barcode" or "normalized_name"
}

// PreviewRowResult is the per-row outcome of a preview computation.
type PreviewRowResult struct {
	RowID          string          `json:"row_id"`
	Status         string          `json:"status"`
	Messages       []string        `json:"messages"`
	Warnings       []string        `json:"warnings"`
	Computed       *pricing.Result `json:"computed,omitempty"`
	MatchCandidate *MatchCandidate `json:"match_candidate,omitempty"`
}

// PreviewSummary counts row outcomes by status.
type PreviewSummary struct {
	OK         int `json:"ok"`
	NeedsInput int `json:"needs_input"`
	Error      int `json:"error"`
}

// PricingConstants echoes the configured pricing inputs so clients can show
// how computed tiers were derived.
type PricingConstants struct {
	FxLeiToEUR         float64            `json:"fx_lei_to_eur"`
	TransportRatePerKG float64            `json:"transport_rate_per_kg"`
	Markups            map[string]float64 `json:"markups"`
}

// PreviewResponse is the body returned by POST /v1/invoice/preview-pricing.
type PreviewResponse struct {
	Rows      []PreviewRowResult `json:"rows"`
	Summary   PreviewSummary     `json:"summary"`
	Constants PricingConstants   `json:"constants"`
}
