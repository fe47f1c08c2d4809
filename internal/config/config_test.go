package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                   8080,
		Model:                  "gpt-4o-mini",
		Temperature:            0.0,
		MaxTokens:              4096,
		LLMTimeout:             60 * time.Second,
		Mock:                   true,
		ScaleFactor:            0.2,
		Tolerance:              3,
		OCRDPI:                 150,
		AllowedCurrencies:      []string{"MDL", "EUR", "USD"},
		FxLeiToEUR:             19.5,
		TransportRatePerKG:     1.5,
		ExtractCacheMaxEntries: 128,
		MaxPDFSizeMB:           10,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty currency list", func(c *Config) { c.AllowedCurrencies = nil }},
		{"malformed currency code", func(c *Config) { c.AllowedCurrencies = []string{"EURO"} }},
		{"scale factor too small", func(c *Config) { c.ScaleFactor = 0.05 }},
		{"scale factor too large", func(c *Config) { c.ScaleFactor = 0.9 }},
		{"tolerance out of range", func(c *Config) { c.Tolerance = 0 }},
		{"dpi out of range", func(c *Config) { c.OCRDPI = 50 }},
		{"temperature out of range", func(c *Config) { c.Temperature = 1.5 }},
		{"max tokens zero", func(c *Config) { c.MaxTokens = 0 }},
		{"non-positive fx rate", func(c *Config) { c.FxLeiToEUR = 0 }},
		{"non-positive transport rate", func(c *Config) { c.TransportRatePerKG = -1 }},
		{"cache capacity zero", func(c *Config) { c.ExtractCacheMaxEntries = 0 }},
		{"pdf size zero", func(c *Config) { c.MaxPDFSizeMB = 0 }},
		{"missing api key without mock", func(c *Config) { c.Mock = false; c.OpenAIAPIKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNormalizedCurrencies(t *testing.T) {
	cfg := validConfig()
	cfg.AllowedCurrencies = []string{"mdl", " eur ", "USD"}

	assert.Equal(t, map[string]bool{"MDL": true, "EUR": true, "USD": true}, cfg.NormalizedCurrencies())
}
