package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vmoraru/invoice-extraction-service/internal/config"
)

func TestConfigSignatureStable(t *testing.T) {
	assert.Equal(t, ConfigSignature(testConfig(true)), ConfigSignature(testConfig(true)))
}

func TestConfigSignatureCoversEveryExtractionField(t *testing.T) {
	mutations := map[string]func(*config.Config){
		"model":          func(c *config.Config) { c.Model = "gpt-4o" },
		"temperature":    func(c *config.Config) { c.Temperature = 0.2 },
		"max_tokens":     func(c *config.Config) { c.MaxTokens = 2048 },
		"scale_factor":   func(c *config.Config) { c.ScaleFactor = 0.3 },
		"tolerance":      func(c *config.Config) { c.Tolerance = 5 },
		"ocr_dpi":        func(c *config.Config) { c.OCRDPI = 300 },
		"ocr_languages":  func(c *config.Config) { c.OCRLanguages = "eng" },
		"ocr_config":     func(c *config.Config) { c.OCRConfig = "--psm 4" },
		"column_headers": func(c *config.Config) { c.ColumnHeaders.Quantity = "Qty" },
		"mock":           func(c *config.Config) { c.Mock = true },
	}

	base := ConfigSignature(testConfig(true))
	for name, mutate := range mutations {
		cfg := testConfig(true)
		mutate(cfg)
		assert.NotEqual(t, base, ConfigSignature(cfg),
			"changing %s must change the signature", name)
	}
}

func TestConfigSignatureIgnoresNonExtractionFields(t *testing.T) {
	cfg := testConfig(true)
	cfg.Port = 9999
	cfg.FxLeiToEUR = 25.0
	cfg.ExtractCacheTTL = 0

	assert.Equal(t, ConfigSignature(testConfig(true)), ConfigSignature(cfg))
}

func TestCacheKeyFormat(t *testing.T) {
	assert.Equal(t, "abc:def", CacheKey("abc", "def"))
}
