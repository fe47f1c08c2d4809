// Package importer implements pricing preview and the idempotent import
// write path for extracted invoice rows.
package importer

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

	// liquidToken spots volume sizes in product names. Volumes are priced
	// by the volume≈mass assumption, which callers should see flagged.
	liquidToken = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s*(l|ml)\b`)
)

// NormalizeName canonicalizes a product name for matching: lowercase,
// non-alphanumeric runs collapsed to single spaces, trimmed.
func NormalizeName(name string) string {
	cleaned := nonAlphanumeric.ReplaceAllString(strings.ToLower(name), " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

// hasLiquidToken reports whether a name carries a volume size token.
func hasLiquidToken(name string) bool {
	return liquidToken.MatchString(name)
}
