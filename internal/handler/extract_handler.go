package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vmoraru/invoice-extraction-service/internal/config"
	"github.com/vmoraru/invoice-extraction-service/internal/extract"
	"github.com/vmoraru/invoice-extraction-service/internal/model"
	"github.com/vmoraru/invoice-extraction-service/internal/openai"
	"github.com/vmoraru/invoice-extraction-service/internal/textgrid"
	"github.com/vmoraru/invoice-extraction-service/internal/validate"
)

// ExtractHandler handles PDF extraction requests.
type ExtractHandler struct {
	pipeline *extract.Pipeline
	cfg      *config.Config
	logger   *slog.Logger
}

// NewExtractHandler creates the extraction handler.
func NewExtractHandler(pipeline *extract.Pipeline, cfg *config.Config, logger *slog.Logger) *ExtractHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractHandler{pipeline: pipeline, cfg: cfg, logger: logger}
}

// Extract processes an uploaded invoice PDF
// @Summary Extract invoice data from a PDF
// @Description Upload an invoice PDF and extract structured line-item data
// @Tags extract
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Invoice PDF file"
// @Success 200 {object} model.ExtractResponse "Extracted invoice"
// @Header 200 {string} X-Extract-Cache "Cache status: hit, miss or off"
// @Failure 400 {object} model.ErrorResponse "Not a PDF or unreadable document"
// @Failure 401 {object} model.ErrorResponse "Missing or invalid token"
// @Failure 413 {object} model.ErrorResponse "File exceeds the size limit"
// @Failure 422 {object} model.ErrorResponse "Extraction produced no usable rows"
// @Failure 429 {object} model.ErrorResponse "Rate limit exceeded"
// @Failure 504 {object} model.ErrorResponse "LLM request timed out"
// @Router /v1/extract [post]
func (h *ExtractHandler) Extract(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondBadRequest(c, "INVALID_FILE", "a PDF file is required in the 'file' form field")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		respondBadRequest(c, "INVALID_FILE", "only PDF files are accepted")
		return
	}

	maxBytes := int64(h.cfg.MaxPDFSizeMB) * 1024 * 1024
	if header.Size > maxBytes {
		respondPayloadTooLarge(c, "uploaded file exceeds the size limit")
		return
	}

	tmpPath, fileHash, err := h.spoolUpload(file, maxBytes)
	if errors.Is(err, errFileTooLarge) {
		respondPayloadTooLarge(c, "uploaded file exceeds the size limit")
		return
	}
	if err != nil {
		h.logger.Error("failed to spool upload", "filename", header.Filename, "error", err)
		respondInternalServerError(c, "failed to store uploaded file")
		return
	}
	defer os.Remove(tmpPath)

	h.logger.Info("extracting invoice", "filename", header.Filename,
		"size", header.Size, "file_hash", fileHash)

	result, err := h.pipeline.ProcessFile(c.Request.Context(), tmpPath, fileHash)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}

	c.Header("X-Extract-Cache", result.CacheStatus)
	respondOK(c, model.ExtractResponse{Invoice: result.Invoice, Extraction: result.Extraction})
}

var errFileTooLarge = errors.New("file exceeds size limit")

// spoolUpload streams the upload to a temp file while hashing it, without
// ever holding the whole document in memory.
func (h *ExtractHandler) spoolUpload(file io.Reader, maxBytes int64) (string, string, error) {
	tmp, err := os.CreateTemp("", "extract-*.pdf")
	if err != nil {
		return "", "", err
	}
	defer tmp.Close()

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), io.LimitReader(file, maxBytes+1))
	if err != nil {
		os.Remove(tmp.Name())
		return "", "", err
	}
	if written > maxBytes {
		os.Remove(tmp.Name())
		return "", "", errFileTooLarge
	}

	return tmp.Name(), hex.EncodeToString(hasher.Sum(nil)), nil
}

// respondPipelineError maps each pipeline failure mode to its status code.
func (h *ExtractHandler) respondPipelineError(c *gin.Context, err error) {
	var integrityErr *openai.IntegrityError
	var validationErr *validate.ValidationError
	var extractErr *textgrid.ExtractError

	switch {
	case errors.Is(err, openai.ErrTimeout):
		respondGatewayTimeout(c, "the language model did not answer within the configured timeout")
	case errors.As(err, &integrityErr):
		respondUnprocessableEntity(c, "EXTRACTION_UNUSABLE", integrityErr.Error())
	case errors.As(err, &validationErr):
		respondUnprocessableEntity(c, "VALIDATION_FAILED", validationErr.Error())
	case errors.As(err, &extractErr):
		respondBadRequest(c, "UNREADABLE_PDF", extractErr.Error())
	default:
		h.logger.Error("extraction failed", "error", err)
		respondInternalServerError(c, "extraction failed")
	}
}
