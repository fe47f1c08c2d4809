package domain

import "math"

// mathTolerance is the allowed relative discrepancy between
// quantity*unit_price and the VAT-inclusive line total.
const mathTolerance = 0.05

// Product represents a single extracted invoice line item.
//
// RawCode, UOM, RowID, WeightKgCandidate, SizeToken and ParseConfidence are
// pointers: absence is meaningful and must round-trip as JSON null.
type Product struct {
	RawCode            *string  `json:"raw_code"`
	Name               string   `json:"name"`
	UOM                *string  `json:"uom,omitempty"`
	Quantity           float64  `json:"quantity"`
	UnitPrice          float64  `json:"unit_price"`
	TotalPrice         float64  `json:"total_price"`
	ConfidenceScore    float64  `json:"confidence_score"`
	RowID              *string  `json:"row_id"`
	WeightKgCandidate  *float64 `json:"weight_kg_candidate"`
	SizeToken          *string  `json:"size_token"`
	ParseConfidence    *float64 `json:"parse_confidence"`
	CategorySuggestion *string  `json:"category_suggestion,omitempty"`
}

// CapConfidenceOnMathMismatch lowers the confidence score to at most 0.6
// when quantity*unit_price disagrees with total_price beyond 5% tolerance.
// The row is kept; tax rounding commonly produces small discrepancies.
func (p *Product) CapConfidenceOnMathMismatch() {
	calculated := p.Quantity * p.UnitPrice
	if math.Abs(calculated-p.TotalPrice) > calculated*mathTolerance {
		p.ConfidenceScore = math.Min(p.ConfidenceScore, 0.6)
	}
}

// InvoiceData is the complete validated extraction result for one invoice.
type InvoiceData struct {
	Supplier      *string   `json:"supplier"`
	InvoiceNumber *string   `json:"invoice_number"`
	Date          *string   `json:"date"`
	TotalAmount   float64   `json:"total_amount"`
	Currency      string    `json:"currency"`
	Products      []Product `json:"products"`
}

// SumLineTotals returns the sum of all product line totals, used for the
// invoice-level consistency check against TotalAmount.
func (d *InvoiceData) SumLineTotals() float64 {
	var sum float64
	for _, p := range d.Products {
		sum += p.TotalPrice
	}
	return sum
}
