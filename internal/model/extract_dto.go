// Package model contains the request/response shapes for the HTTP API.
package model

import (
	"github.com/vmoraru/invoice-extraction-service/internal/domain"
	"github.com/vmoraru/invoice-extraction-service/internal/textgrid"
)

// ExtractResponse is the body returned by POST /v1/extract.
type ExtractResponse struct {
	Invoice    *domain.InvoiceData `json:"invoice"`
	Extraction textgrid.Metadata   `json:"extraction"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
