package model

// Import outcome values for the whole batch.
const (
	ImportStatusCompleted     = "completed"
	ImportStatusPartialFailed = "partial_failed"
	ImportStatusFailed        = "failed"
)

// Per-row import actions.
const (
	ImportActionCreated = "created"
	ImportActionUpdated = "updated"
)

// ImportRequest is the body for POST /v1/invoice/import. Rows reuse the
// preview shape; the import path runs the same validation before writing.
type ImportRequest struct {
	Supplier *string      `json:"supplier,omitempty"`
	Rows     []PreviewRow `json:"rows" binding:"required"`
}

// ImportRowResult is the per-row outcome of an import.
type ImportRowResult struct {
	RowID     string   `json:"row_id"`
	Status    string   `json:"status"`
	Action    string   `json:"action,omitempty"`
	ProductID string   `json:"product_id,omitempty"`
	Messages  []string `json:"messages"`
	Warnings  []string `json:"warnings"`
}

// ImportResponse is the body returned by POST /v1/invoice/import. The same
// response is replayed verbatim for idempotent retries.
type ImportResponse struct {
	ImportID     string            `json:"import_id"`
	ImportStatus string            `json:"import_status"`
	Rows         []ImportRowResult `json:"rows"`
	Summary      PreviewSummary    `json:"summary"`
}
