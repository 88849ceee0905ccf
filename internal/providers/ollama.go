package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const (
	OllamaName           = "ollama"
	OllamaDefaultBaseURL = "http://localhost:11434"
	OllamaDefaultModel   = "mistral"
)

// OllamaConfig holds configuration for the Ollama client.
type OllamaConfig struct {
	BaseURL     string
	Model       string
	Temperature *float64
	// Timeout bounds a single HTTP round trip. Zero means no timeout.
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
}

// OllamaClient talks to Ollama's native /api/generate endpoint.
type OllamaClient struct {
	baseURL     string
	model       string
	temperature *float64
	client      *http.Client
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OllamaDefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = OllamaDefaultModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OllamaClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      httpClient,
	}
}

// Name returns the client identifier.
func (c *OllamaClient) Name() string {
	return OllamaName
}

// Model returns the model used for generation.
func (c *OllamaClient) Model() string {
	return c.model
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model           string  `json:"model"`
	Response        *string `json:"response"`
	Done            bool    `json:"done"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
	Error           string  `json:"error,omitempty"`
}

// Generate sends the prompt with streaming disabled and returns the
// "response" field of the reply.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (*GenerateResult, error) {
	start := time.Now()

	body := ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}
	if c.temperature != nil {
		body.Options = map[string]any{"temperature": *c.temperature}
	}

	var resp ollamaGenerateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate", body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, resp.Error)
	}
	if resp.Response == nil {
		return nil, fmt.Errorf("%w: missing \"response\" field", ErrMalformedResponse)
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}

	return &GenerateResult{
		Text:             *resp.Response,
		Provider:         OllamaName,
		ModelUsed:        model,
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		ExecutionTime:    time.Since(start),
		RequestID:        uuid.New().String(),
	}, nil
}

type ollamaTagsResponse struct {
	Models []struct {
		Name       string    `json:"name"`
		Size       int64     `json:"size"`
		ModifiedAt time.Time `json:"modified_at"`
		Details    struct {
			Family        string `json:"family"`
			ParameterSize string `json:"parameter_size"`
		} `json:"details"`
	} `json:"models"`
}

// ListModels returns the models installed on the Ollama server.
func (c *OllamaClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var resp ollamaTagsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/tags", nil, &resp); err != nil {
		return nil, err
	}

	models := make([]ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, ModelInfo{
			Name:       m.Name,
			Size:       m.Size,
			Family:     m.Details.Family,
			Parameters: m.Details.ParameterSize,
			ModifiedAt: m.ModifiedAt,
		})
	}
	return models, nil
}

// Ping checks that the Ollama server answers.
func (c *OllamaClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/version", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy status: %d", resp.StatusCode)
	}
	return nil
}

// WaitReady polls the server until it answers or timeout elapses. It is
// meant for startup, not for generation calls.
func (c *OllamaClient) WaitReady(ctx context.Context, timeout time.Duration) error {
	attempts := uint(timeout.Seconds())
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(
		func() error { return c.Ping(ctx) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(1*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

func (c *OllamaClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Provider: OllamaName, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

var (
	_ LLMClient     = (*OllamaClient)(nil)
	_ HealthChecker = (*OllamaClient)(nil)
	_ ModelLister   = (*OllamaClient)(nil)
)
