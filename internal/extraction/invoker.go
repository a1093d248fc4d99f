package extraction

import (
	"context"
	"errors"

	"github.com/jonathan/trade-hire/internal/llm"
	"github.com/jonathan/trade-hire/internal/schema"
)

// Invoker makes the single model call of an extraction.
type Invoker struct {
	client llm.Client
}

// NewInvoker returns an Invoker backed by client.
func NewInvoker(client llm.Client) *Invoker {
	return &Invoker{client: client}
}

// Invoke sends the task instruction and normalized text to the model exactly once and
// returns its raw output. Failures are *RateLimitedError or *ModelUnavailableError.
func (i *Invoker) Invoke(ctx context.Context, task schema.Task, text string, vars map[string]string) (string, error) {
	if i.client == nil {
		return "", &ModelUnavailableError{Message: "no model client configured"}
	}

	instruction, err := BuildInstruction(task, vars)
	if err != nil {
		return "", err
	}

	raw, err := i.client.Generate(ctx, llm.Request{
		SystemInstruction: instruction,
		UserText:          text,
		MaxOutputTokens:   task.MaxOutputTokens,
		Tier:              task.Tier,
		JSON:              true,
	})
	if err != nil {
		return "", classify(err)
	}
	return raw, nil
}

func classify(err error) error {
	switch {
	case llm.IsRateLimited(err):
		return &RateLimitedError{Message: "model provider is throttling requests", Cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &ModelUnavailableError{Message: "model call timed out", Cause: err}
	default:
		return &ModelUnavailableError{Message: "model call failed", Cause: err}
	}
}
