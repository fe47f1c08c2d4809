package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vmoraru/invoice-extraction-service/internal/domain"
	"github.com/vmoraru/invoice-extraction-service/internal/model"
	"github.com/vmoraru/invoice-extraction-service/internal/repository"
)

// Import applies the submitted rows to the product repository under the
// given idempotency key. A replay with the same key and payload returns the
// stored response; the same key with a different payload is a conflict and
// mutates nothing.
func (s *Service) Import(ctx context.Context, idempotencyKey string, req *model.ImportRequest) (*model.ImportResponse, error) {
	if idempotencyKey == "" {
		return nil, &model.ContractError{
			Code:       model.CodeIdempotencyKeyRequired,
			Message:    "Idempotency-Key header is required for imports",
			StatusCode: http.StatusBadRequest,
		}
	}

	requestHash, err := hashRequest(req)
	if err != nil {
		return nil, fmt.Errorf("hashing import request: %w", err)
	}

	stored, err := s.repo.GetIdempotentResult(ctx, idempotencyKey)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("checking idempotency key: %w", err)
	}
	if err == nil {
		if stored.RequestHash != requestHash {
			return nil, &model.ContractError{
				Code:       model.CodeIdempotencyConflict,
				Message:    "idempotency key was already used with a different payload",
				StatusCode: http.StatusConflict,
			}
		}
		var replay model.ImportResponse
		if err := json.Unmarshal(stored.Response, &replay); err != nil {
			return nil, fmt.Errorf("decoding stored import response: %w", err)
		}
		s.logger.Info("replaying idempotent import", "key", idempotencyKey, "import_id", replay.ImportID)
		return &replay, nil
	}

	response := s.applyRows(ctx, req)

	encoded, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("encoding import response: %w", err)
	}
	record := &domain.IdempotencyRecord{
		Key:         idempotencyKey,
		RequestHash: requestHash,
		Response:    encoded,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.SaveIdempotentResult(ctx, record); err != nil {
		return nil, fmt.Errorf("saving idempotency record: %w", err)
	}

	return response, nil
}

// applyRows writes every importable row and aggregates the batch outcome.
// Row failures never abort the batch.
func (s *Service) applyRows(ctx context.Context, req *model.ImportRequest) *model.ImportResponse {
	importID := "imp_" + time.Now().UTC().Format("20060102150405")

	results := make([]model.ImportRowResult, 0, len(req.Rows))
	var summary model.PreviewSummary

	for _, row := range req.Rows {
		result := s.importRow(ctx, row, req.Supplier, importID)
		if result.Status == model.RowStatusOK {
			summary.OK++
		} else {
			summary.Error++
		}
		results = append(results, result)
	}

	status := model.ImportStatusCompleted
	if summary.OK == 0 {
		status = model.ImportStatusFailed
	} else if summary.Error > 0 {
		status = model.ImportStatusPartialFailed
	}

	s.logger.Info("import finished", "import_id", importID, "status", status,
		"ok", summary.OK, "errors", summary.Error)

	return &model.ImportResponse{
		ImportID:     importID,
		ImportStatus: status,
		Rows:         results,
		Summary:      summary,
	}
}

// importRow validates and prices one row, then creates or updates the
// matched product and records an inbound stock movement.
func (s *Service) importRow(ctx context.Context, row model.PreviewRow, supplier *string, importID string) model.ImportRowResult {
	preview := s.previewRow(ctx, model.PreviewRow{
		RowID:        row.RowID,
		Name:         row.Name,
		Barcode:      row.Barcode,
		Quantity:     row.Quantity,
		LineTotalLei: row.LineTotalLei,
		WeightKg:     row.WeightKg,
	})

	result := model.ImportRowResult{
		RowID:    row.RowID,
		Status:   preview.Status,
		Messages: preview.Messages,
		Warnings: preview.Warnings,
	}
	if preview.Status != model.RowStatusOK {
		// The import contract reports only ok or error rows; a gap the
		// preview flags as needs_input is an error once writes are requested.
		result.Status = model.RowStatusError
		return result
	}

	input := domain.UpsertProductInput{
		Name:           row.Name,
		NormalizedName: NormalizeName(row.Name),
		Barcode:        row.Barcode,
		Supplier:       supplier,
		Price:          preview.Computed.BasePriceEUR + preview.Computed.TransportEUR,
		Price50:        preview.Computed.Price50,
		Price70:        preview.Computed.Price70,
		Price100:       preview.Computed.Price100,
		Markup:         70,
	}

	var (
		product *domain.ProductRecord
		err     error
	)
	if preview.MatchCandidate != nil {
		result.Action = model.ImportActionUpdated
		product, err = s.repo.UpdateProduct(ctx, preview.MatchCandidate.ProductID, input)
	} else {
		result.Action = model.ImportActionCreated
		product, err = s.repo.CreateProduct(ctx, input)
	}
	if err != nil {
		s.logger.Error("product write failed", "row_id", row.RowID, "error", err)
		result.Status = model.RowStatusError
		result.Action = ""
		result.Messages = append(result.Messages, model.CodeComputationError)
		return result
	}
	result.ProductID = product.ProductID

	if err := s.repo.AddStockMovementIn(ctx, product.ProductID, row.Quantity, importID); err != nil {
		s.logger.Error("stock movement write failed", "row_id", row.RowID, "error", err)
		result.Status = model.RowStatusError
		result.Messages = append(result.Messages, model.CodeComputationError)
	}

	return result
}

// hashRequest canonicalizes the import payload for idempotent replay
// detection.
func hashRequest(req *model.ImportRequest) (string, error) {
	encoded, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
