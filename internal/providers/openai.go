package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName = "openai"
)

// OpenAIConfig holds configuration for an OpenAI-compatible chat endpoint
// (OpenAI, vLLM, or Ollama's /v1 surface).
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64
	Timeout     time.Duration // Zero means no timeout
	HTTPClient  *http.Client  // Optional (tests)
}

// OpenAIClient sends each prompt as a single user message to the chat
// completions API.
type OpenAIClient struct {
	model       string
	temperature *float64
	client      openai.Client
}

// NewOpenAIClient creates a new OpenAI-compatible client. SDK retries are
// disabled.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = OllamaDefaultModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		// Local servers ignore the key, but the SDK requires one.
		opts = append(opts, option.WithAPIKey("unused"))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      openai.NewClient(opts...),
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Model returns the configured model.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Generate sends the prompt and returns the content of the first choice.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (*GenerateResult, error) {
	start := time.Now()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if c.temperature != nil {
		params.Temperature = openai.Float(*c.temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrMalformedResponse)
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}

	return &GenerateResult{
		Text:             resp.Choices[0].Message.Content,
		Provider:         OpenAIName,
		ModelUsed:        model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		ExecutionTime:    time.Since(start),
		RequestID:        resp.ID,
	}, nil
}

// ListModels returns the models the endpoint advertises.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if page == nil {
		return nil, fmt.Errorf("%w: empty model list", ErrMalformedResponse)
	}

	models := make([]ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, ModelInfo{
			Name:       m.ID,
			Family:     m.OwnedBy,
			ModifiedAt: time.Unix(m.Created, 0).UTC(),
		})
	}
	return models, nil
}

// Ping checks that the endpoint answers a model listing.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx); err != nil {
		return fmt.Errorf("openai models list failed: %w", mapOpenAIError(err))
	}
	return nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &StatusError{
			Provider:   OpenAIName,
			StatusCode: apiErr.StatusCode,
			Body:       apiErr.Message,
		}
	}
	return err
}

var (
	_ LLMClient     = (*OpenAIClient)(nil)
	_ HealthChecker = (*OpenAIClient)(nil)
	_ ModelLister   = (*OpenAIClient)(nil)
)
