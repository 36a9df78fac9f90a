// Package providers wraps the generative-model collaborator behind a small
// interface so the pipeline can be driven by a real endpoint in production
// and a scripted mock in tests.
package providers

import (
	"context"
	"time"
)

// LLMClient is the interface the pipeline uses for text completion.
type LLMClient interface {
	// Complete sends an instruction and returns the raw model text.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)

	// Name returns the client identifier (e.g., "openai").
	Name() string
}

// CompletionRequest is a single completion call.
type CompletionRequest struct {
	// System primes the model role; optional.
	System string
	// Instruction is the user-turn prompt.
	Instruction string

	// Model selection (uses client default if empty).
	Model string

	// Generation parameters.
	Temperature float64
	MaxTokens   int

	// Request tracking.
	RequestID string
}

// CompletionResult is the response from one completion call.
type CompletionResult struct {
	Content string

	// Token counts, when the provider reports them.
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	// Timing.
	ExecutionTime time.Duration

	// Provider info.
	Provider  string
	ModelUsed string

	// Request tracking.
	RequestID string

	// Success/error. A failed result is still returned alongside the error
	// so callers can record what happened.
	Success      bool
	ErrorMessage string
}
