package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/vmoraru/invoice-extraction-service/internal/config"
)

// signatureSchemaVersion invalidates every cached entry when the meaning of
// the signature fields changes.
const signatureSchemaVersion = 1

// signaturePayload enumerates every knob that can change extraction output.
// Field order is fixed so the serialized form is canonical.
type signaturePayload struct {
	SchemaVersion int                  `json:"schema_version"`
	Model         string               `json:"model"`
	Temperature   float64              `json:"temperature"`
	MaxTokens     int                  `json:"max_tokens"`
	ScaleFactor   float64              `json:"scale_factor"`
	Tolerance     float64              `json:"tolerance"`
	OCRDPI        int                  `json:"ocr_dpi"`
	OCRLanguages  string               `json:"ocr_languages"`
	OCRConfig     string               `json:"ocr_config"`
	ColumnHeaders config.ColumnHeaders `json:"column_headers"`
	Mock          bool                 `json:"mock"`
}

// ConfigSignature hashes the extraction-relevant configuration. Two requests
// share a cache entry only when both the file bytes and this signature match,
// so a config change can never serve stale results.
func ConfigSignature(cfg *config.Config) string {
	payload := signaturePayload{
		SchemaVersion: signatureSchemaVersion,
		Model:         cfg.Model,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		ScaleFactor:   cfg.ScaleFactor,
		Tolerance:     cfg.Tolerance,
		OCRDPI:        cfg.OCRDPI,
		OCRLanguages:  cfg.OCRLanguages,
		OCRConfig:     cfg.OCRConfig,
		ColumnHeaders: cfg.ColumnHeaders,
		Mock:          cfg.Mock,
	}

	encoded, _ := json.Marshal(payload)
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

// CacheKey combines the uploaded file's content hash with the config
// signature.
func CacheKey(fileHash, signature string) string {
	return fileHash + ":" + signature
}
