package importer

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmoraru/invoice-extraction-service/internal/config"
	"github.com/vmoraru/invoice-extraction-service/internal/domain"
	"github.com/vmoraru/invoice-extraction-service/internal/model"
	"github.com/vmoraru/invoice-extraction-service/internal/repository"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(s string) *string { return &s }

func testService() (*Service, *repository.MemoryRepository) {
	repo := repository.NewMemoryRepository()
	cfg := &config.Config{FxLeiToEUR: 19.5, TransportRatePerKG: 1.5}
	return NewService(repo, cfg, nil), repo
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"200G UNT CIOCOLATA JLC", "200g unt ciocolata jlc"},
		{"  Lapte--3,5%  ", "lapte 3 5"},
		{"CEAI (24x2g)", "ceai 24x2g"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.input), "input %q", tt.input)
	}
}

func TestPreviewRowOK(t *testing.T) {
	s, _ := testService()

	resp := s.PreviewPricing(context.Background(), &model.PreviewRequest{
		Rows: []model.PreviewRow{
			{RowID: "r_1", Name: "UNT 200G", Quantity: 10, LineTotalLei: 200, WeightKg: floatPtr(0.2)},
		},
	})

	require.Len(t, resp.Rows, 1)
	row := resp.Rows[0]
	assert.Equal(t, model.RowStatusOK, row.Status)
	require.NotNil(t, row.Computed)
	assert.Equal(t, 1.0256, row.Computed.BasePriceEUR)
	assert.Equal(t, 1.9885, row.Computed.Price50)
	assert.Empty(t, row.Messages)
	assert.Equal(t, model.PreviewSummary{OK: 1}, resp.Summary)
	assert.Equal(t, 19.5, resp.Constants.FxLeiToEUR)
	assert.Equal(t, 1.5, resp.Constants.Markups["price_50"])
}

func TestPreviewRowMissingWeight(t *testing.T) {
	s, _ := testService()

	resp := s.PreviewPricing(context.Background(), &model.PreviewRequest{
		Rows: []model.PreviewRow{
			{RowID: "r_1", Name: "Produs fara marime", Quantity: 1, LineTotalLei: 10},
		},
	})

	row := resp.Rows[0]
	assert.Equal(t, model.RowStatusNeedsInput, row.Status)
	assert.Contains(t, row.Messages, model.CodeMissingWeight)
	assert.Nil(t, row.Computed, "no pricing is attempted without a weight")
}

func TestPreviewRowPricingErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		row  model.PreviewRow
		code string
	}{
		{"zero quantity", model.PreviewRow{RowID: "r", Name: "A", Quantity: 0, LineTotalLei: 10, WeightKg: floatPtr(1)}, model.CodeInvalidQuantity},
		{"negative line total", model.PreviewRow{RowID: "r", Name: "A", Quantity: 1, LineTotalLei: -5, WeightKg: floatPtr(1)}, model.CodeInvalidLineTotal},
		{"zero weight", model.PreviewRow{RowID: "r", Name: "A", Quantity: 1, LineTotalLei: 10, WeightKg: floatPtr(0)}, model.CodeInvalidWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := testService()
			resp := s.PreviewPricing(context.Background(), &model.PreviewRequest{Rows: []model.PreviewRow{tt.row}})

			row := resp.Rows[0]
			assert.Equal(t, model.RowStatusError, row.Status)
			assert.Contains(t, row.Messages, tt.code)
		})
	}
}

func TestPreviewRowLiquidWarning(t *testing.T) {
	s, _ := testService()

	resp := s.PreviewPricing(context.Background(), &model.PreviewRequest{
		Rows: []model.PreviewRow{
			{RowID: "r_1", Name: "Suc 750ml", Quantity: 2, LineTotalLei: 30, WeightKg: floatPtr(0.75)},
		},
	})

	row := resp.Rows[0]
	assert.Equal(t, model.RowStatusOK, row.Status)
	assert.Contains(t, row.Warnings, model.CodeLiquidDensityAssumed)
}

func TestPreviewMatchByBarcode(t *testing.T) {
	s, repo := testService()
	existing, err := repo.CreateProduct(context.Background(), domain.UpsertProductInput{
		Name: "UNT 200G", NormalizedName: "unt 200g", Barcode: strPtr("4840167001399"),
	})
	require.NoError(t, err)

	resp := s.PreviewPricing(context.Background(), &model.PreviewRequest{
		Rows: []model.PreviewRow{
			{RowID: "r_1", Name: "alt nume", Barcode: strPtr("4840167001399"),
				Quantity: 1, LineTotalLei: 10, WeightKg: floatPtr(0.2)},
		},
	})

	row := resp.Rows[0]
	require.NotNil(t, row.MatchCandidate)
	assert.Equal(t, existing.ProductID, row.MatchCandidate.ProductID)
	assert.Equal(t, "barcode", row.MatchCandidate.MatchedBy)
}

func TestPreviewAmbiguousNameMatch(t *testing.T) {
	s, repo := testService()
	for i := 0; i < 2; i++ {
		_, err := repo.CreateProduct(context.Background(), domain.UpsertProductInput{
			Name: "UNT 200G", NormalizedName: "unt 200g",
		})
		require.NoError(t, err)
	}

	resp := s.PreviewPricing(context.Background(), &model.PreviewRequest{
		Rows: []model.PreviewRow{
			{RowID: "r_1", Name: "UNT 200G", Quantity: 1, LineTotalLei: 10, WeightKg: floatPtr(0.2)},
		},
	})

	row := resp.Rows[0]
	assert.Equal(t, model.RowStatusError, row.Status)
	assert.Contains(t, row.Messages, model.CodeAmbiguousNameMatch)
	assert.Nil(t, row.MatchCandidate)
}

func importRequest() *model.ImportRequest {
	return &model.ImportRequest{
		Supplier: strPtr("METRO"),
		Rows: []model.PreviewRow{
			{RowID: "r_1", Name: "UNT 200G", Quantity: 10, LineTotalLei: 200, WeightKg: floatPtr(0.2)},
		},
	}
}

func TestImportRequiresIdempotencyKey(t *testing.T) {
	s, _ := testService()

	_, err := s.Import(context.Background(), "", importRequest())
	require.Error(t, err)

	var contractErr *model.ContractError
	require.ErrorAs(t, err, &contractErr)
	assert.Equal(t, model.CodeIdempotencyKeyRequired, contractErr.Code)
	assert.Equal(t, http.StatusBadRequest, contractErr.StatusCode)
}

func TestImportCreatesProductAndStockMovement(t *testing.T) {
	s, repo := testService()

	resp, err := s.Import(context.Background(), "key-1", importRequest())
	require.NoError(t, err)

	assert.Equal(t, model.ImportStatusCompleted, resp.ImportStatus)
	assert.Regexp(t, `^imp_\d{14}$`, resp.ImportID)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, model.RowStatusOK, resp.Rows[0].Status)
	assert.Equal(t, model.ImportActionCreated, resp.Rows[0].Action)
	assert.NotEmpty(t, resp.Rows[0].ProductID)
	assert.Equal(t, 1, repo.MovementCount())

	created, err := repo.FindProductsByNormalizedName(context.Background(), "unt 200g")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "METRO", *created[0].Supplier)
	assert.Equal(t, 70, created[0].Markup)
	assert.Equal(t, 1.9885, created[0].Price50)
}

func TestImportUpdatesMatchedProduct(t *testing.T) {
	s, repo := testService()
	existing, err := repo.CreateProduct(context.Background(), domain.UpsertProductInput{
		Name: "UNT 200G", NormalizedName: "unt 200g",
	})
	require.NoError(t, err)

	resp, err := s.Import(context.Background(), "key-1", importRequest())
	require.NoError(t, err)

	assert.Equal(t, model.ImportActionUpdated, resp.Rows[0].Action)
	assert.Equal(t, existing.ProductID, resp.Rows[0].ProductID)
}

func TestImportRefreshesMatchedProductName(t *testing.T) {
	s, repo := testService()
	existing, err := repo.CreateProduct(context.Background(), domain.UpsertProductInput{
		Name: "UNT VECHI", NormalizedName: "unt vechi", Barcode: strPtr("4840167001399"),
	})
	require.NoError(t, err)

	req := &model.ImportRequest{
		Rows: []model.PreviewRow{
			{RowID: "r_1", Name: "UNT NOU 200G", Barcode: strPtr("4840167001399"),
				Quantity: 10, LineTotalLei: 200, WeightKg: floatPtr(0.2)},
		},
	}
	resp, err := s.Import(context.Background(), "key-1", req)
	require.NoError(t, err)
	require.Equal(t, model.ImportStatusCompleted, resp.ImportStatus)

	// The barcode-matched product carries the new invoice name, so later
	// name-based matching resolves against it.
	refreshed, err := repo.FindProductsByNormalizedName(context.Background(), NormalizeName("UNT NOU 200G"))
	require.NoError(t, err)
	require.Len(t, refreshed, 1)
	assert.Equal(t, existing.ProductID, refreshed[0].ProductID)
	assert.Equal(t, "UNT NOU 200G", refreshed[0].Name)
	assert.Equal(t, 70, refreshed[0].Markup)

	stale, err := repo.FindProductsByNormalizedName(context.Background(), "unt vechi")
	require.NoError(t, err)
	assert.Empty(t, stale, "the old name must no longer match")
}

func TestImportReplaySamePayload(t *testing.T) {
	s, repo := testService()

	first, err := s.Import(context.Background(), "key-1", importRequest())
	require.NoError(t, err)

	second, err := s.Import(context.Background(), "key-1", importRequest())
	require.NoError(t, err)

	assert.Equal(t, first, second, "replay must return the stored response verbatim")
	assert.Equal(t, 1, repo.MovementCount(), "replay must not apply the rows again")
}

func TestImportConflictOnDifferentPayload(t *testing.T) {
	s, repo := testService()

	_, err := s.Import(context.Background(), "key-1", importRequest())
	require.NoError(t, err)

	changed := importRequest()
	changed.Rows[0].Quantity = 99

	_, err = s.Import(context.Background(), "key-1", changed)
	require.Error(t, err)

	var contractErr *model.ContractError
	require.ErrorAs(t, err, &contractErr)
	assert.Equal(t, model.CodeIdempotencyConflict, contractErr.Code)
	assert.Equal(t, http.StatusConflict, contractErr.StatusCode)
	assert.Equal(t, 1, repo.MovementCount(), "a conflict must not mutate anything")
}

func TestImportPartialFailure(t *testing.T) {
	s, _ := testService()

	req := importRequest()
	req.Rows = append(req.Rows, model.PreviewRow{
		RowID: "r_2", Name: "Produs fara marime", Quantity: 1, LineTotalLei: 10,
	})

	resp, err := s.Import(context.Background(), "key-1", req)
	require.NoError(t, err)
	assert.Equal(t, model.ImportStatusPartialFailed, resp.ImportStatus)
	assert.Equal(t, model.PreviewSummary{OK: 1, Error: 1}, resp.Summary)
}

func TestImportMissingWeightRowIsError(t *testing.T) {
	s, _ := testService()

	req := importRequest()
	req.Rows[0].WeightKg = nil

	resp, err := s.Import(context.Background(), "key-1", req)
	require.NoError(t, err)

	// Preview flags the gap as needs_input, but once writes are requested an
	// unpriceable row is an error.
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, model.RowStatusError, resp.Rows[0].Status)
	assert.Contains(t, resp.Rows[0].Messages, model.CodeMissingWeight)
	assert.Equal(t, model.PreviewSummary{Error: 1}, resp.Summary)
}

func TestImportAllRowsFailed(t *testing.T) {
	s, repo := testService()

	req := importRequest()
	req.Rows[0].WeightKg = nil

	resp, err := s.Import(context.Background(), "key-1", req)
	require.NoError(t, err)
	assert.Equal(t, model.ImportStatusFailed, resp.ImportStatus)
	assert.Equal(t, 0, repo.MovementCount())
}
