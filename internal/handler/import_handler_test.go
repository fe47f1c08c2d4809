package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmoraru/invoice-extraction-service/internal/config"
	"github.com/vmoraru/invoice-extraction-service/internal/importer"
	"github.com/vmoraru/invoice-extraction-service/internal/model"
	"github.com/vmoraru/invoice-extraction-service/internal/repository"
)

func importTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{FxLeiToEUR: 19.5, TransportRatePerKG: 1.5}
	service := importer.NewService(repository.NewMemoryRepository(), cfg, nil)
	h := NewImportHandler(service, cfg, nil)

	r := gin.New()
	r.POST("/v1/invoice/preview-pricing", h.PreviewPricing)
	r.POST("/v1/invoice/import", h.Import)
	r.GET("/v1/pricing/constants", h.PricingConstants)
	return r
}

func postJSON(r *gin.Engine, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const oneRowBody = `{"supplier":"METRO","rows":[{"row_id":"r_1","name":"UNT 200G","quantity":10,"line_total_lei":200,"weight_kg":0.2}]}`

func TestPreviewPricingEndpoint(t *testing.T) {
	r := importTestRouter()

	w := postJSON(r, "/v1/invoice/preview-pricing", oneRowBody, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.PreviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, model.RowStatusOK, resp.Rows[0].Status)
	assert.Equal(t, 1.9885, resp.Rows[0].Computed.Price50)
}

func TestPreviewPricingRejectsMalformedBody(t *testing.T) {
	r := importTestRouter()

	w := postJSON(r, "/v1/invoice/preview-pricing", `{"supplier":"METRO"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
}

func TestImportEndpointRequiresIdempotencyKey(t *testing.T) {
	r := importTestRouter()

	w := postJSON(r, "/v1/invoice/import", oneRowBody, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), model.CodeIdempotencyKeyRequired)
}

func TestImportEndpointConflictMapsTo409(t *testing.T) {
	r := importTestRouter()
	key := map[string]string{"Idempotency-Key": "key-1"}

	first := postJSON(r, "/v1/invoice/import", oneRowBody, key)
	require.Equal(t, http.StatusOK, first.Code)

	changed := strings.Replace(oneRowBody, `"quantity":10`, `"quantity":99`, 1)
	second := postJSON(r, "/v1/invoice/import", changed, key)
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), model.CodeIdempotencyConflict)
}

func TestPricingConstantsEndpoint(t *testing.T) {
	r := importTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/pricing/constants", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp model.PricingConstants
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 19.5, resp.FxLeiToEUR)
	assert.Equal(t, map[string]float64{"price_50": 1.5, "price_70": 1.7, "price_100": 2.0}, resp.Markups)
}
