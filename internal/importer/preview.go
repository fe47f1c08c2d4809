package importer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vmoraru/invoice-extraction-service/internal/config"
	"github.com/vmoraru/invoice-extraction-service/internal/model"
	"github.com/vmoraru/invoice-extraction-service/internal/pricing"
	"github.com/vmoraru/invoice-extraction-service/internal/repository"
)

// Service computes pricing previews and performs idempotent imports.
type Service struct {
	repo   repository.ProductRepository
	cfg    *config.Config
	logger *slog.Logger
}

// NewService creates the import service.
func NewService(repo repository.ProductRepository, cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cfg: cfg, logger: logger}
}

// PreviewPricing prices every submitted row and resolves match candidates.
// Row-level failures never abort the batch; each row reports its own
// status and machine-readable message codes.
func (s *Service) PreviewPricing(ctx context.Context, req *model.PreviewRequest) *model.PreviewResponse {
	results := make([]model.PreviewRowResult, 0, len(req.Rows))
	var summary model.PreviewSummary

	for _, row := range req.Rows {
		result := s.previewRow(ctx, row)
		switch result.Status {
		case model.RowStatusOK:
			summary.OK++
		case model.RowStatusNeedsInput:
			summary.NeedsInput++
		default:
			summary.Error++
		}
		results = append(results, result)
	}

	return &model.PreviewResponse{
		Rows:    results,
		Summary: summary,
		Constants: model.PricingConstants{
			FxLeiToEUR:         s.cfg.FxLeiToEUR,
			TransportRatePerKG: s.cfg.TransportRatePerKG,
			Markups:            pricing.Markups(),
		},
	}
}

// previewRow validates, prices and matches a single row.
func (s *Service) previewRow(ctx context.Context, row model.PreviewRow) model.PreviewRowResult {
	result := model.PreviewRowResult{
		RowID:    row.RowID,
		Status:   model.RowStatusOK,
		Messages: []string{},
		Warnings: []string{},
	}

	if hasLiquidToken(row.Name) {
		result.Warnings = append(result.Warnings, model.CodeLiquidDensityAssumed)
	}

	// Missing weight is a user-input gap, checked before any computation.
	if row.WeightKg == nil {
		result.Status = model.RowStatusNeedsInput
		result.Messages = append(result.Messages, model.CodeMissingWeight)
	} else {
		computed, err := pricing.Compute(pricing.Input{
			LineTotalLei:       row.LineTotalLei,
			Quantity:           row.Quantity,
			WeightKg:           *row.WeightKg,
			FxLeiToEUR:         s.cfg.FxLeiToEUR,
			TransportRatePerKg: s.cfg.TransportRatePerKG,
		})
		if err != nil {
			result.Status = model.RowStatusError
			result.Messages = append(result.Messages, pricingErrorCode(err))
		} else {
			result.Computed = &computed
		}
	}

	candidate, matchErr := s.matchRow(ctx, row)
	if matchErr != "" {
		result.Status = model.RowStatusError
		result.Messages = append(result.Messages, matchErr)
	}
	result.MatchCandidate = candidate

	return result
}

// matchRow resolves a row to an existing product: barcode wins, otherwise a
// unique normalized-name match. Multiple name matches with no barcode are an
// ambiguity the caller must resolve, returned as an error code.
func (s *Service) matchRow(ctx context.Context, row model.PreviewRow) (*model.MatchCandidate, string) {
	if row.Barcode != nil && *row.Barcode != "" {
		product, err := s.repo.FindProductByBarcode(ctx, *row.Barcode)
		if err == nil {
			return &model.MatchCandidate{
				ProductID: product.ProductID,
				Name:      product.Name,
				MatchedBy: "barcode",
			}, ""
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("barcode lookup failed", "barcode", *row.Barcode, "error", err)
		}
	}

	matches, err := s.repo.FindProductsByNormalizedName(ctx, NormalizeName(row.Name))
	if err != nil {
		s.logger.Error("name lookup failed", "name", row.Name, "error", err)
		return nil, ""
	}

	switch len(matches) {
	case 0:
		return nil, ""
	case 1:
		return &model.MatchCandidate{
			ProductID: matches[0].ProductID,
			Name:      matches[0].Name,
			MatchedBy: "normalized_name",
		}, ""
	default:
		return nil, model.CodeAmbiguousNameMatch
	}
}

// pricingErrorCode maps a pricing input violation to its API message code.
func pricingErrorCode(err error) string {
	var inputErr *pricing.InputError
	if !errors.As(err, &inputErr) {
		return model.CodeComputationError
	}

	switch inputErr.Field {
	case "quantity":
		return model.CodeInvalidQuantity
	case "line_total_lei":
		return model.CodeInvalidLineTotal
	case "weight_kg":
		return model.CodeInvalidWeight
	case "fx_lei_to_eur":
		return model.CodeInvalidFxRate
	case "transport_rate_per_kg":
		return model.CodeInvalidTransportRate
	default:
		return model.CodeComputationError
	}
}
