// Package handler contains the gin HTTP handlers for the extraction and
// import APIs.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vmoraru/invoice-extraction-service/internal/model"
)

// respondError sends the uniform error envelope.
func respondError(c *gin.Context, statusCode int, code, message string, details ...any) {
	detail := model.ErrorDetail{Code: code, Message: message}
	if len(details) > 0 {
		detail.Details = details[0]
	}
	c.JSON(statusCode, model.ErrorResponse{Error: detail})
}

func respondBadRequest(c *gin.Context, code, message string) {
	respondError(c, http.StatusBadRequest, code, message)
}

func respondPayloadTooLarge(c *gin.Context, message string) {
	respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", message)
}

func respondUnprocessableEntity(c *gin.Context, code, message string) {
	respondError(c, http.StatusUnprocessableEntity, code, message)
}

func respondGatewayTimeout(c *gin.Context, message string) {
	respondError(c, http.StatusGatewayTimeout, "LLM_TIMEOUT", message)
}

func respondInternalServerError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// respondContractError maps a service-level ContractError onto its HTTP
// status.
func respondContractError(c *gin.Context, err *model.ContractError) {
	c.JSON(err.StatusCode, model.ErrorResponse{
		Error: model.ErrorDetail{Code: err.Code, Message: err.Message, Details: err.Details},
	})
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}
