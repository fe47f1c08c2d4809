// Package openai implements the chat-completions client used to parse
// invoice text grids into structured data, plus the output normalization
// layer that makes model responses safe to validate.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/vmoraru/invoice-extraction-service/internal/config"
	"github.com/vmoraru/invoice-extraction-service/internal/domain"
)

// ErrTimeout marks a model request that exceeded the configured timeout.
// Callers map it to a gateway-timeout response; it is retryable.
var ErrTimeout = errors.New("model request timed out")

// ClientError represents an error that occurred during API interaction
type ClientError struct {
	Op  string // Operation that caused the error
	Err error  // Original error
}

// Error implements the error interface
func (e *ClientError) Error() string {
	if e.Err == nil {
		return "openai error: " + e.Op
	}
	return "openai error: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ClientError) Unwrap() error {
	return e.Err
}

// Client calls the chat-completions API to extract invoice data.
type Client struct {
	apiKey      string
	apiURL      string
	model       string
	temperature float64
	maxTokens   int
	mock        bool
	headers     config.ColumnHeaders
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a new extraction client from service configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:      cfg.OpenAIAPIKey,
		apiURL:      cfg.OpenAIBase + "/chat/completions",
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		mock:        cfg.Mock,
		headers:     cfg.ColumnHeaders,
		logger:      logger,
		httpClient: &http.Client{
			Timeout: cfg.LLMTimeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ParseWithLLM sends a text grid to the model and returns normalized
// invoice data. Temperature defaults to 0 for deterministic extraction.
func (c *Client) ParseWithLLM(ctx context.Context, textGrid string) (*domain.InvoiceData, error) {
	if c.mock {
		c.logger.Info("using mock invoice data, no API call")
		return mockInvoice(), nil
	}

	if c.apiKey == "" {
		return nil, &ClientError{
			Op:  "validate_configuration",
			Err: fmt.Errorf("API key is not configured. Please set OPENAI_API_KEY environment variable"),
		}
	}

	userPrompt := fmt.Sprintf(`Here is invoice text with preserved spatial layout:

%s

Extract all invoice data following the rules in the system prompt.
Pay special attention to the column headers to correctly identify quantity vs price columns.
`, textGrid)

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt()},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	payload.ResponseFormat.Type = "json_object"

	requestData, err := json.Marshal(payload)
	if err != nil {
		return nil, &ClientError{Op: "marshal_request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return nil, &ClientError{Op: "create_request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &ClientError{Op: "send_request", Err: ErrTimeout}
		}
		return nil, &ClientError{Op: "send_request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Op: "read_response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{
			Op:  "check_api_response",
			Err: fmt.Errorf("API error: %s - %s", resp.Status, string(respBody)),
		}
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, &ClientError{Op: "parse_response_json", Err: err}
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, &ClientError{Op: "check_response_choices", Err: fmt.Errorf("API returned no content")}
	}

	c.logger.Info("model response received",
		"model", c.model, "latency", time.Since(start).String())

	return NormalizePayload([]byte(chat.Choices[0].Message.Content), c.logger)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
