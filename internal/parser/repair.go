package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/providers"
)

// DefaultMaxAttempts bounds the repair loop when no limit is configured.
const DefaultMaxAttempts = 3

// ErrAttemptsExhausted is returned when every repair attempt failed.
var ErrAttemptsExhausted = errors.New("repair attempts exhausted")

// Classifier turns one raw model response into a Result. Parse (curried
// with a schema) is the usual classifier; schema detection plugs in its own.
type Classifier func(raw string) Result

// Repairer drives the bounded retry loop around a generative call: invoke
// the model, classify the output, and on failure re-invoke with an amended
// instruction that echoes the specific violation. The attempt policy lives
// here so the parser itself stays stateless.
type Repairer struct {
	Client      providers.LLMClient
	MaxAttempts int
	CallTimeout time.Duration // per-attempt; zero means no deadline
	Logger      *slog.Logger
}

// Run executes the repair loop. On success it returns the Ok result; after
// exhausting attempts it returns the last classification alongside
// ErrAttemptsExhausted.
func (r *Repairer) Run(ctx context.Context, req providers.CompletionRequest) (Result, error) {
	return r.RunWith(ctx, req, nil)
}

// RunWith is Run with a custom classifier. A nil classifier parses with no
// schema (structure-only validation).
func (r *Repairer) RunWith(ctx context.Context, req providers.CompletionRequest, classify Classifier) (Result, error) {
	if classify == nil {
		classify = func(raw string) Result { return Parse(raw, nil) }
	}

	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	original := req.Instruction
	var last Result

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		result, err := r.completeOnce(ctx, &req)
		if err != nil {
			// Model unavailable or timed out: counts as one exhausted
			// attempt, feeding the same retry path as a garbage response.
			log.Warn("model call failed", "attempt", attempt, "error", err)
			last = Garbage("")
			continue
		}

		last = classify(result.Content)
		if last.Kind == Ok {
			return last, nil
		}

		log.Debug("parse attempt failed",
			"attempt", attempt,
			"kind", last.Kind.String(),
			"detail", last.Detail)

		req.Instruction = amendInstruction(original, last)
	}

	return last, fmt.Errorf("%w after %d attempts (last: %s)", ErrAttemptsExhausted, maxAttempts, last.Kind)
}

// completeOnce makes one model call under the per-attempt timeout. A
// deadline hit surfaces as an error, which Run treats as a spent attempt.
func (r *Repairer) completeOnce(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResult, error) {
	if r.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.CallTimeout)
		defer cancel()
	}
	return r.Client.Complete(ctx, req)
}

// amendInstruction appends a correction that echoes the specific violation
// so the model can fix exactly what was wrong.
func amendInstruction(original string, res Result) string {
	lastOutput := strings.TrimSpace(res.Raw)
	if len(lastOutput) > 12000 {
		lastOutput = lastOutput[:12000] + "\n...[truncated]"
	}

	var issue string
	switch res.Kind {
	case Unparseable:
		issue = "Your previous response contained no decodable JSON. Return ONLY valid JSON with no markdown fences and no commentary."
	case SchemaViolation:
		issue = fmt.Sprintf("Your previous response was valid JSON but did not match the required shape: %s.", res.Detail)
	default:
		issue = "Your previous response could not be used."
	}

	if lastOutput == "" {
		return fmt.Sprintf("%s\n\nIMPORTANT: %s", original, issue)
	}
	return fmt.Sprintf("%s\n\nIMPORTANT: %s\n\nYour previous output was:\n%s", original, issue, lastOutput)
}
