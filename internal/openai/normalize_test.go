package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePayloadWellFormed(t *testing.T) {
	payload := `{
		"supplier": "METRO CASH & CARRY MOLDOVA",
		"invoice_number": "94",
		"date": "02-02-2026",
		"total_amount": 217.15,
		"currency": "MDL",
		"products": [
			{"raw_code": "4840167001399", "name": "200G UNT JLC", "uom": "bu",
			 "quantity": 5, "unit_price": 43.43, "total_price": 217.15, "confidence_score": 0.95}
		]
	}`

	data, err := NormalizePayload([]byte(payload), nil)
	require.NoError(t, err)

	assert.Equal(t, "METRO CASH & CARRY MOLDOVA", *data.Supplier)
	assert.Equal(t, 217.15, data.TotalAmount)
	assert.Equal(t, "MDL", data.Currency)
	require.Len(t, data.Products, 1)

	p := data.Products[0]
	assert.Equal(t, "4840167001399", *p.RawCode)
	assert.Equal(t, "BU", *p.UOM, "uom is uppercased")
	assert.Equal(t, 5.0, p.Quantity)
	assert.Equal(t, 0.95, p.ConfidenceScore)
}

func TestNormalizePayloadLenientNumbers(t *testing.T) {
	payload := `{
		"total_amount": "8 142,84",
		"currency": "MDL",
		"products": [
			{"name": "CEAI", "quantity": "24", "unit_price": "2,50", "total_price": "60,00"}
		]
	}`

	data, err := NormalizePayload([]byte(payload), nil)
	require.NoError(t, err)

	assert.Equal(t, 8142.84, data.TotalAmount)
	require.Len(t, data.Products, 1)
	assert.Equal(t, 24.0, data.Products[0].Quantity)
	assert.Equal(t, 2.5, data.Products[0].UnitPrice)
	assert.Equal(t, 60.0, data.Products[0].TotalPrice)
	assert.Equal(t, 0.5, data.Products[0].ConfidenceScore, "missing confidence defaults to 0.5")
}

func TestNormalizePayloadDropsMalformedRowsKeepsRest(t *testing.T) {
	payload := `{
		"total_amount": 100,
		"currency": "MDL",
		"products": [
			{"name": "GOOD", "quantity": 1, "unit_price": 10, "total_price": 10},
			{"name": "", "quantity": 1, "unit_price": 10, "total_price": 10},
			{"name": "NO QTY", "quantity": "abc", "unit_price": 10, "total_price": 10},
			{"name": "NEG PRICE", "quantity": 1, "unit_price": -5, "total_price": 10},
			"not an object"
		]
	}`

	data, err := NormalizePayload([]byte(payload), nil)
	require.NoError(t, err)
	require.Len(t, data.Products, 1)
	assert.Equal(t, "GOOD", data.Products[0].Name)
}

func TestNormalizePayloadAllRowsDropped(t *testing.T) {
	payload := `{
		"total_amount": 100,
		"currency": "MDL",
		"products": [
			{"name": "", "quantity": 1, "unit_price": 10, "total_price": 10},
			{"name": "X2", "quantity": 0, "unit_price": 10, "total_price": 10}
		]
	}`

	_, err := NormalizePayload([]byte(payload), nil)
	require.Error(t, err)

	var integrityErr *IntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, 2, integrityErr.Dropped)
	assert.Contains(t, err.Error(), "2 malformed product rows")
}

func TestNormalizePayloadRejectsNonObject(t *testing.T) {
	_, err := NormalizePayload([]byte(`[1, 2, 3]`), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON object")
}

func TestNormalizePayloadRejectsBadTotalAmount(t *testing.T) {
	for _, total := range []string{`null`, `0`, `-5`, `"abc"`} {
		payload := `{"total_amount": ` + total + `, "currency": "MDL",
			"products": [{"name": "A", "quantity": 1, "unit_price": 1, "total_price": 1}]}`

		_, err := NormalizePayload([]byte(payload), nil)
		require.Error(t, err, "total_amount=%s", total)
		assert.Contains(t, err.Error(), "total_amount")
	}
}

func TestNormalizePayloadConfidenceClamped(t *testing.T) {
	payload := `{
		"total_amount": 10,
		"currency": "MDL",
		"products": [
			{"name": "A", "quantity": 1, "unit_price": 10, "total_price": 10, "confidence_score": 7}
		]
	}`

	data, err := NormalizePayload([]byte(payload), nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, data.Products[0].ConfidenceScore)
}

func TestNormalizePayloadMathMismatchCapsConfidence(t *testing.T) {
	// 2 × 10 = 20 vs total 30 is beyond the 5% tolerance.
	payload := `{
		"total_amount": 30,
		"currency": "MDL",
		"products": [
			{"name": "A", "quantity": 2, "unit_price": 10, "total_price": 30, "confidence_score": 0.95}
		]
	}`

	data, err := NormalizePayload([]byte(payload), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.6, data.Products[0].ConfidenceScore)
}

func TestNormalizePayloadRawCodeNeverInvented(t *testing.T) {
	payload := `{
		"total_amount": 10,
		"currency": "MDL",
		"products": [
			{"raw_code": "   ", "name": "A", "quantity": 1, "unit_price": 10, "total_price": 10}
		]
	}`

	data, err := NormalizePayload([]byte(payload), nil)
	require.NoError(t, err)
	assert.Nil(t, data.Products[0].RawCode)
}

func TestNormalizePayloadCategoryClosedSet(t *testing.T) {
	tests := []struct {
		raw  string
		want *string
	}{
		{`"Dairy"`, strPtr("Dairy")},
		{`"general"`, nil},
		{`"Unknown"`, nil},
		{`null`, nil},
	}

	for _, tt := range tests {
		payload := `{"total_amount": 10, "currency": "MDL",
			"products": [{"name": "A", "category_suggestion": ` + tt.raw + `,
				"quantity": 1, "unit_price": 10, "total_price": 10}]}`

		data, err := NormalizePayload([]byte(payload), nil)
		require.NoError(t, err, "category=%s", tt.raw)

		if tt.want == nil {
			assert.Nil(t, data.Products[0].CategorySuggestion, "category=%s", tt.raw)
		} else {
			require.NotNil(t, data.Products[0].CategorySuggestion)
			assert.Equal(t, *tt.want, *data.Products[0].CategorySuggestion)
		}
	}
}

func TestNormalizePayloadStringifiesHeaderFields(t *testing.T) {
	payload := `{
		"total_amount": 10,
		"currency": "MDL",
		"invoice_number": 94,
		"products": [{"name": "A", "quantity": 1, "unit_price": 10, "total_price": 10}]
	}`

	data, err := NormalizePayload([]byte(payload), nil)
	require.NoError(t, err)
	require.NotNil(t, data.InvoiceNumber)
	assert.Equal(t, "94", *data.InvoiceNumber)
}
