package openai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/vmoraru/invoice-extraction-service/internal/domain"
)

// IntegrityError is raised when model output is structurally incomplete for
// safe extraction: every product row was malformed and dropped. It is
// distinct from generic validation errors so the API layer can answer 422.
type IntegrityError struct {
	Dropped int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("LLM returned %d malformed product rows", e.Dropped)
}

// rowOutcome is the per-row normalization result: either a kept product or
// a drop reason. Rows are dropped, never repaired, so the extraction can
// stay honest about what the model actually produced.
type rowOutcome struct {
	product    *domain.Product
	dropReason string
}

// NormalizePayload converts raw model JSON into typed invoice data,
// tolerating the kinds of malformation language models produce without ever
// fabricating values. Partial malformation drops rows and proceeds; total
// malformation returns an IntegrityError.
func NormalizePayload(content []byte, logger *slog.Logger) (*domain.InvoiceData, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		return nil, fmt.Errorf("LLM payload must be a JSON object: %w", err)
	}

	productsRaw, _ := payload["products"].([]any)

	var products []domain.Product
	dropped := 0
	for _, raw := range productsRaw {
		outcome := normalizeProduct(raw)
		if outcome.product == nil {
			logger.Debug("dropping malformed product row", "reason", outcome.dropReason)
			dropped++
			continue
		}
		products = append(products, *outcome.product)
	}

	if dropped > 0 {
		logger.Warn("dropped malformed product rows from LLM output", "count", dropped)
		// Keep extraction usable if at least one row is valid.
		if len(products) == 0 {
			return nil, &IntegrityError{Dropped: dropped}
		}
	}

	totalAmount := toFloat(payload["total_amount"])
	if totalAmount == nil || *totalAmount <= 0 {
		return nil, fmt.Errorf("invalid total_amount in LLM payload: %v", payload["total_amount"])
	}

	currency := ""
	if v, ok := payload["currency"]; ok && v != nil {
		currency = strings.TrimSpace(stringify(v))
	}

	return &domain.InvoiceData{
		Supplier:      toOptionalString(payload["supplier"]),
		InvoiceNumber: toOptionalString(payload["invoice_number"]),
		Date:          toOptionalString(payload["date"]),
		TotalAmount:   *totalAmount,
		Currency:      currency,
		Products:      products,
	}, nil
}

func normalizeProduct(raw any) rowOutcome {
	item, ok := raw.(map[string]any)
	if !ok {
		return rowOutcome{dropReason: "row is not an object"}
	}

	name := ""
	if s, ok := item["name"].(string); ok {
		name = strings.TrimSpace(s)
	}
	quantity := toFloat(item["quantity"])
	unitPrice := toFloat(item["unit_price"])
	totalPrice := toFloat(item["total_price"])

	// Quantity and unit price must be strictly positive for valid rows;
	// malformed rows are skipped instead of failing the whole invoice.
	switch {
	case name == "":
		return rowOutcome{dropReason: "empty name"}
	case quantity == nil:
		return rowOutcome{dropReason: "unparseable quantity"}
	case unitPrice == nil:
		return rowOutcome{dropReason: "unparseable unit_price"}
	case totalPrice == nil:
		return rowOutcome{dropReason: "unparseable total_price"}
	case *quantity <= 0:
		return rowOutcome{dropReason: "non-positive quantity"}
	case *unitPrice <= 0:
		return rowOutcome{dropReason: "non-positive unit_price"}
	case *totalPrice < 0:
		return rowOutcome{dropReason: "negative total_price"}
	}

	confidence := 0.5
	if c := toFloat(item["confidence_score"]); c != nil {
		confidence = math.Max(0.0, math.Min(1.0, *c))
	}

	product := &domain.Product{
		RawCode:         normalizeRawCode(item["raw_code"]),
		Name:            name,
		UOM:             normalizeUOM(item["uom"]),
		Quantity:        *quantity,
		UnitPrice:       *unitPrice,
		TotalPrice:      *totalPrice,
		ConfidenceScore: confidence,
	}
	product.CategorySuggestion = normalizeCategory(item["category_suggestion"])
	product.CapConfidenceOnMathMismatch()
	return rowOutcome{product: product}
}

// normalizeRawCode trims a provided code to a non-empty string or nil.
// Codes are never invented.
func normalizeRawCode(v any) *string {
	if v == nil {
		return nil
	}
	code := strings.TrimSpace(stringify(v))
	if code == "" {
		return nil
	}
	return &code
}

func normalizeUOM(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	uom := strings.ToUpper(strings.TrimSpace(s))
	if uom == "" {
		return nil
	}
	return &uom
}

// normalizeCategory keeps a suggestion only when it exactly matches the
// closed set; anything else becomes null rather than a catch-all.
func normalizeCategory(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	for _, allowed := range CategorySuggestions {
		if s == allowed {
			return &s
		}
	}
	return nil
}

// toFloat leniently converts model output values: numbers pass through,
// strings get thousands spaces removed and comma treated as the decimal
// separator. Anything else is nil.
func toFloat(v any) *float64 {
	switch value := v.(type) {
	case float64:
		return &value
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(value), " ", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
		if cleaned == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

func toOptionalString(v any) *string {
	if v == nil {
		return nil
	}
	s := stringify(v)
	return &s
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
