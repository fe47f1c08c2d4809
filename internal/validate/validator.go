// Package validate enforces the currency allow-list and computes confidence
// signals for extracted invoices. Math mismatches downgrade confidence;
// they never reject a row.
package validate

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/vmoraru/invoice-extraction-service/internal/domain"
)

// invoiceTotalTolerance is the allowed relative gap between the sum of line
// totals and the invoice total before a warning is logged. Taxes and
// discounts commonly account for sizable differences.
const invoiceTotalTolerance = 0.20

// ValidationError is a document-level failure: the whole invoice is
// rejected, not individual rows.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validator validates and scores invoice data.
type Validator struct {
	allowedCurrencies map[string]bool
	logger            *slog.Logger
}

// NewValidator creates a validator for the given currency allow-set.
// Currency codes are matched case-insensitively and normalized uppercase.
func NewValidator(allowedCurrencies map[string]bool, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{allowedCurrencies: allowedCurrencies, logger: logger}
}

// ValidateInvoice checks the currency allow-list and assigns per-product
// confidence scores. The invoice is mutated in place and returned.
func (v *Validator) ValidateInvoice(data *domain.InvoiceData) (*domain.InvoiceData, error) {
	upper := strings.ToUpper(data.Currency)
	if !v.allowedCurrencies[upper] {
		valid := make([]string, 0, len(v.allowedCurrencies))
		for cur := range v.allowedCurrencies {
			valid = append(valid, cur)
		}
		sort.Strings(valid)
		return nil, &ValidationError{
			Message: fmt.Sprintf("Invalid currency: %s. Valid: %s", data.Currency, strings.Join(valid, ", ")),
		}
	}
	data.Currency = upper

	for i := range data.Products {
		data.Products[i].ConfidenceScore = v.scoreProduct(&data.Products[i])
	}

	if sum := data.SumLineTotals(); len(data.Products) > 0 &&
		math.Abs(sum-data.TotalAmount) > data.TotalAmount*invoiceTotalTolerance {
		v.logger.Warn("sum of line totals deviates from invoice total",
			"line_total_sum", sum, "total_amount", data.TotalAmount)
	}

	v.logger.Info("overall extraction confidence",
		"confidence", fmt.Sprintf("%.2f", v.overallConfidence(data)))

	return data, nil
}

// scoreProduct calculates a multi-factor confidence score for a line:
// math consistency first, then field completeness, then value plausibility.
func (v *Validator) scoreProduct(product *domain.Product) float64 {
	score := 1.0

	if ok, discrepancyPct := validateProductMath(product); !ok {
		score *= 1.0 - discrepancyPct/20.0
	}

	if len(product.Name) < 3 {
		score *= 0.7
	}

	if product.RawCode == nil {
		score *= 0.95
	}

	if product.Quantity > 1000 || product.Quantity < 0.01 {
		score *= 0.8
	}

	if product.UnitPrice > 100000 || product.UnitPrice < 0.01 {
		score *= 0.8
	}

	return math.Max(0.0, math.Min(1.0, score))
}

// validateProductMath compares quantity*unit_price against the line total,
// returning whether the discrepancy is within 5% and its percentage.
func validateProductMath(product *domain.Product) (bool, float64) {
	calculated := product.Quantity * product.UnitPrice
	if calculated == 0 {
		return false, 100.0
	}

	discrepancyPct := math.Abs(calculated-product.TotalPrice) / calculated * 100
	return discrepancyPct <= 5.0, discrepancyPct
}

// overallConfidence averages product scores and applies a completeness
// factor for missing header fields. Logged for observability only.
func (v *Validator) overallConfidence(data *domain.InvoiceData) float64 {
	if len(data.Products) == 0 {
		return 1.0
	}

	var sum float64
	for _, p := range data.Products {
		sum += p.ConfidenceScore
	}
	avg := sum / float64(len(data.Products))

	completeness := 1.0
	if data.Supplier == nil || *data.Supplier == "" {
		completeness *= 0.95
	}
	if data.InvoiceNumber == nil || *data.InvoiceNumber == "" {
		completeness *= 0.95
	}
	if data.Date == nil || *data.Date == "" {
		completeness *= 0.90
	}

	return avg * completeness
}
