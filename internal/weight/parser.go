// Package weight derives kilogram-equivalent weight candidates from
// free-text product names, e.g. "CIOCOLATA ALBA 200G" or "24x2g CEAI".
package weight

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// The multipack pattern must be tried before the single-token pattern:
// "24x2g" would otherwise partially match as a bare "2g".
var (
	multipackPattern = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)\s*[xX]\s*(\d+(?:[.,]\d+)?)\s*(kg|g|ml|l)\b`)
	singlePattern    = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)\s*(kg|g|ml|l)\b`)
)

// parseConfidence is fixed for regex-derived weights; measured weights from
// KG-unit rows never pass through this parser.
const parseConfidence = 0.98

// ParseResult holds parsed weight details from a product name. All fields
// are nil when no supported size token is present.
type ParseResult struct {
	WeightKg        *float64
	SizeToken       *string
	ParseConfidence *float64
}

// ParseCandidate parses the first supported size token in productName and
// converts it to kilograms. Liquid volumes assume density 1 (l and ml map
// 1:1 by volume). It never fails: unparseable names yield an empty result.
func ParseCandidate(productName string) ParseResult {
	if m := multipackPattern.FindStringSubmatch(productName); m != nil {
		packs, err1 := parseDecimal(m[1])
		unitValue, err2 := parseDecimal(m[2])
		if err1 != nil || err2 != nil {
			return ParseResult{}
		}

		total := packs * unitValue
		if !isUsable(total) {
			return ParseResult{}
		}

		return result(toKilograms(total, m[3]), m[0])
	}

	m := singlePattern.FindStringSubmatch(productName)
	if m == nil {
		return ParseResult{}
	}

	value, err := parseDecimal(m[1])
	if err != nil || !isUsable(value) {
		return ParseResult{}
	}

	return result(toKilograms(value, m[2]), m[0])
}

func parseDecimal(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
}

func isUsable(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v) && v > 0
}

func toKilograms(value float64, unit string) float64 {
	switch strings.ToLower(unit) {
	case "g", "ml":
		return value / 1000.0
	default: // kg and l pass through 1:1
		return value
	}
}

func result(weightKg float64, matched string) ParseResult {
	token := strings.ReplaceAll(strings.ToUpper(matched), " ", "")
	confidence := parseConfidence
	return ParseResult{
		WeightKg:        &weightKg,
		SizeToken:       &token,
		ParseConfidence: &confidence,
	}
}
