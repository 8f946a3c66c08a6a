package llm

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Completer wraps an LLMProvider with bounded retry-with-backoff.
// Each call builds its own attempt counter; nothing is shared across calls.
type Completer struct {
	provider LLMProvider
	retrier  *Retrier
	logger   *zap.Logger
}

// NewCompleter creates a Completer. retrier may be nil for the default policy.
func NewCompleter(provider LLMProvider, retrier *Retrier, logger *zap.Logger) *Completer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrier == nil {
		retrier = NewRetrier(DefaultRetryPolicy(), WithRetryLogger(logger))
	}
	return &Completer{provider: provider, retrier: retrier, logger: logger}
}

// Complete returns the generated text or the last *Error once retries are
// exhausted or a non-retryable kind was seen.
func (c *Completer) Complete(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	attempts, err := c.retrier.Do(ctx, func(ctx context.Context) error {
		r, genErr := c.provider.Generate(ctx, req)
		if genErr != nil {
			return genErr
		}
		resp = r
		return nil
	})
	if err != nil {
		var llmErr *Error
		if !errors.As(err, &llmErr) {
			llmErr = &Error{Kind: KindOf(err), Message: err.Error(), Err: err}
		}
		llmErr.Attempts = attempts
		c.logger.Warn("completion failed",
			zap.Stringer("kind", llmErr.Kind),
			zap.Int("status", llmErr.Status),
			zap.Int("attempts", attempts),
			zap.Error(llmErr))
		return nil, llmErr
	}

	resp.Attempts = attempts
	c.logger.Debug("completion succeeded",
		zap.Int("attempts", attempts),
		zap.String("finish_reason", resp.FinishReason),
		zap.Int("text_len", len(resp.Text)))
	return resp, nil
}
