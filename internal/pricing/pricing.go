// Package pricing implements the deterministic landed-cost formula used for
// invoice import parity with the sourcing spreadsheet.
package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Markup multipliers for the three published price tiers.
const (
	markup50  = 1.5
	markup70  = 1.7
	markup100 = 2.0
)

// Result holds computed pricing for a single invoice row. All values are
// rounded to 4 decimal places independently; rounding the landed price once
// and then multiplying would break numeric parity.
type Result struct {
	BasePriceEUR float64 `json:"base_price_eur"`
	TransportEUR float64 `json:"transport_eur"`
	Price50      float64 `json:"price_50"`
	Price70      float64 `json:"price_70"`
	Price100     float64 `json:"price_100"`
}

// Markups returns the published tier multipliers keyed by tier name, for
// echoing in preview responses.
func Markups() map[string]float64 {
	return map[string]float64{
		"price_50":  markup50,
		"price_70":  markup70,
		"price_100": markup100,
	}
}

// InputError reports a violated pricing precondition. Field names the exact
// offending input so callers can map it to a machine-readable code.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Input holds the pricing inputs for one invoice row.
type Input struct {
	LineTotalLei       float64
	Quantity           float64
	WeightKg           float64
	FxLeiToEUR         float64
	TransportRatePerKg float64
}

// Compute derives the landed EUR cost and markup tiers for one row.
//
//	base     = (line_total_lei / quantity) / fx_lei_to_eur
//	transport = weight_kg * transport_rate_per_kg
//	landed   = base + transport
func Compute(in Input) (Result, error) {
	for _, check := range []struct {
		value float64
		field string
	}{
		{in.LineTotalLei, "line_total_lei"},
		{in.Quantity, "quantity"},
		{in.WeightKg, "weight_kg"},
		{in.FxLeiToEUR, "fx_lei_to_eur"},
		{in.TransportRatePerKg, "transport_rate_per_kg"},
	} {
		if math.IsInf(check.value, 0) || math.IsNaN(check.value) {
			return Result{}, &InputError{Field: check.field, Reason: "must be finite"}
		}
	}

	if in.Quantity <= 0 {
		return Result{}, &InputError{Field: "quantity", Reason: "must be positive"}
	}
	if in.LineTotalLei < 0 {
		return Result{}, &InputError{Field: "line_total_lei", Reason: "cannot be negative"}
	}
	if in.WeightKg <= 0 {
		return Result{}, &InputError{Field: "weight_kg", Reason: "must be positive"}
	}
	if in.FxLeiToEUR <= 0 {
		return Result{}, &InputError{Field: "fx_lei_to_eur", Reason: "must be positive"}
	}
	if in.TransportRatePerKg <= 0 {
		return Result{}, &InputError{Field: "transport_rate_per_kg", Reason: "must be positive"}
	}

	base := (in.LineTotalLei / in.Quantity) / in.FxLeiToEUR
	transport := in.WeightKg * in.TransportRatePerKg
	landed := base + transport

	return Result{
		BasePriceEUR: round4(base),
		TransportEUR: round4(transport),
		Price50:      round4(landed * markup50),
		Price70:      round4(landed * markup70),
		Price100:     round4(landed * markup100),
	}, nil
}

func round4(value float64) float64 {
	return decimal.NewFromFloat(value).Round(4).InexactFloat64()
}
