package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LLMClient sends one prompt to an inference service and returns its reply.
// Implementations do not retry: a failed call is returned to the caller as is.
type LLMClient interface {
	// Generate sends a single prompt and blocks until the reply arrives.
	Generate(ctx context.Context, prompt string) (*GenerateResult, error)

	// Name returns the client identifier (e.g., "ollama").
	Name() string
}

// HealthChecker is implemented by clients that can probe their service.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ModelLister is implemented by clients that can enumerate installed models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// GenerateResult is the reply to one prompt.
type GenerateResult struct {
	// Text is the raw reply, not normalized in any way.
	Text string `json:"text"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Token counts, when the service reports them
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`

	ExecutionTime time.Duration `json:"execution_time"`
	RequestID     string        `json:"request_id"`
}

// ModelInfo describes a model installed on the inference service.
type ModelInfo struct {
	Name       string    `json:"name" yaml:"name"`
	Size       int64     `json:"size,omitempty" yaml:"size,omitempty"`
	Family     string    `json:"family,omitempty" yaml:"family,omitempty"`
	Parameters string    `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	ModifiedAt time.Time `json:"modified_at,omitempty" yaml:"modified_at,omitempty"`
}

// ErrMalformedResponse is returned when the service answers 2xx but the body
// does not carry the expected reply field.
var ErrMalformedResponse = errors.New("malformed inference response")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}
