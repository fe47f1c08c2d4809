package model

import "fmt"

// ErrorDetail is the machine-readable error payload inside ErrorResponse.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the uniform error body for every non-2xx API response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ContractError carries an API error code with the HTTP status it maps to,
// so service-layer code can signal contract outcomes without importing the
// HTTP layer.
type ContractError struct {
	Code       string
	Message    string
	StatusCode int
	Details    any
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
