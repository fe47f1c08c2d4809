package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// sensitiveFields are JSON field name fragments whose values are redacted
// from logged bodies.
var sensitiveFields = []string{
	"password",
	"token",
	"api_key",
	"apikey",
	"api-key",
	"secret",
	"authorization",
	"bearer",
	"credential",
	"cookie",
	"session",
}

var sensitiveHeaderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)authorization`),
	regexp.MustCompile(`(?i)api[-_]?key`),
	regexp.MustCompile(`(?i)token`),
	regexp.MustCompile(`(?i)secret`),
	regexp.MustCompile(`(?i)cookie`),
	regexp.MustCompile(`(?i)idempotency`),
}

// maxLoggedBody caps how much of a non-JSON body is logged.
const maxLoggedBody = 1000

// RequestLogger logs each request and response through the given slog
// logger with sensitive headers and body fields redacted. Multipart bodies
// are never buffered; only their size is logged.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()

		var requestBody []byte
		contentType := c.ContentType()
		if c.Request.Body != nil && contentType == "application/json" {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"headers", redactHeaders(c.Request.Header),
		}
		if contentType == "multipart/form-data" {
			attrs = append(attrs, "request_size", c.Request.ContentLength)
		} else if len(requestBody) > 0 {
			attrs = append(attrs, "request_body", redactBody(requestBody))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		logger.Info("request completed", attrs...)
	}
}

func redactHeaders(headers map[string][]string) map[string]string {
	redacted := make(map[string]string, len(headers))
	for key, values := range headers {
		if isSensitiveHeader(key) {
			redacted[key] = "[REDACTED]"
		} else {
			redacted[key] = strings.Join(values, ", ")
		}
	}
	return redacted
}

func isSensitiveHeader(name string) bool {
	for _, pattern := range sensitiveHeaderPatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

// redactBody parses a JSON body and redacts sensitive fields; non-JSON
// bodies are truncated to a bounded string.
func redactBody(body []byte) any {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		s := string(body)
		if len(s) > maxLoggedBody {
			s = s[:maxLoggedBody] + "... (truncated)"
		}
		return s
	}
	redactValues(parsed)
	return parsed
}

func redactValues(data any) {
	switch v := data.(type) {
	case map[string]any:
		for key, value := range v {
			if isSensitiveField(key) {
				v[key] = "[REDACTED]"
			} else {
				redactValues(value)
			}
		}
	case []any:
		for _, item := range v {
			redactValues(item)
		}
	}
}

func isSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range sensitiveFields {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
