package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency    time.Duration
	ShouldFail bool
	FailAfter  int // Fail after N requests (0 = never)

	// Responses are returned in order, one per call. Once exhausted,
	// ResponseText is returned.
	Responses    []string
	ResponseText string

	// Respond, when set, computes the reply from the prompt and takes
	// precedence over Responses.
	Respond func(prompt string) string

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	prompts      []string
}

// NewMockClient creates a new mock client that answers every prompt with
// the not-found sentinel.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: "-1",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Generate returns the next scripted reply.
func (c *MockClient) Generate(ctx context.Context, prompt string) (*GenerateResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()

	if c.ShouldFail {
		return nil, fmt.Errorf("mock client configured to fail")
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		return nil, fmt.Errorf("mock client failed after %d requests", c.FailAfter)
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := c.ResponseText
	switch {
	case c.Respond != nil:
		text = c.Respond(prompt)
	case int(count) <= len(c.Responses):
		text = c.Responses[count-1]
	}

	return &GenerateResult{
		Text:          text,
		Provider:      MockClientName,
		ModelUsed:     MockClientName,
		ExecutionTime: time.Since(start),
		RequestID:     fmt.Sprintf("mock-%d", count),
	}, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Prompts returns every prompt received, in call order.
func (c *MockClient) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.prompts))
	copy(out, c.prompts)
	return out
}

// Reset resets the request counter and recorded prompts.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
	c.mu.Lock()
	c.prompts = nil
	c.mu.Unlock()
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
