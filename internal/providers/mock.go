package providers

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing. Responses are served from the
// Responses script in order; the last entry repeats once the script is
// exhausted. ResponseFunc, when set, takes precedence.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	Responses    []string
	ResponseFunc func(req *CompletionRequest) (string, error)

	mu           sync.Mutex
	requestCount int
	requests     []CompletionRequest
}

// NewMockClient creates a mock that always answers with the given responses.
func NewMockClient(responses ...string) *MockClient {
	if len(responses) == 0 {
		responses = []string{"mock response"}
	}
	return &MockClient{Responses: responses}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Complete serves the next scripted response.
func (c *MockClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error) {
	start := time.Now()

	c.mu.Lock()
	c.requestCount++
	count := c.requestCount
	c.requests = append(c.requests, *req)
	c.mu.Unlock()

	result := &CompletionResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
	}

	if c.ShouldFail || (c.FailAfter > 0 && count > c.FailAfter) {
		result.Success = false
		result.ErrorMessage = "mock client configured to fail"
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("mock client configured to fail")
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			result.Success = false
			result.ErrorMessage = ctx.Err().Error()
			result.ExecutionTime = time.Since(start)
			return result, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		result.Success = false
		result.ErrorMessage = err.Error()
		return result, err
	}

	var content string
	if c.ResponseFunc != nil {
		text, err := c.ResponseFunc(req)
		if err != nil {
			result.Success = false
			result.ErrorMessage = err.Error()
			result.ExecutionTime = time.Since(start)
			return result, err
		}
		content = text
	} else {
		idx := count - 1
		if idx >= len(c.Responses) {
			idx = len(c.Responses) - 1
		}
		content = c.Responses[idx]
	}

	result.Success = true
	result.Content = content
	result.PromptTokens = len(req.Instruction) / 4 // Rough estimate
	result.CompletionTokens = len(content) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens
	result.ExecutionTime = time.Since(start)

	return result, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestCount
}

// Requests returns a copy of all requests seen so far.
func (c *MockClient) Requests() []CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CompletionRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// Reset clears the request history.
func (c *MockClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestCount = 0
	c.requests = nil
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
