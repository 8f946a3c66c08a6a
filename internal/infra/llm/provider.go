// Package llm — LLMProvider interface.
// Adapters (Gemini REST, GenAI SDK, Ollama) implement this interface so the
// coach domain is never coupled to a specific vendor.
package llm

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// LLMProvider is the model-agnostic interface for completion calls.
// Generate performs exactly one attempt; retries belong to Completer.
type LLMProvider interface {
	// Generate performs a single non-streaming completion.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the provider is reachable and operational.
	HealthCheck(ctx context.Context) error
}

// providerOptions are shared by the HTTP-based adapters.
type providerOptions struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures an adapter.
type Option func(*providerOptions)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *providerOptions) { o.httpClient = c }
}

// WithLogger sets the adapter logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *providerOptions) { o.logger = logger }
}

func applyOptions(defaults providerOptions, opts []Option) providerOptions {
	for _, opt := range opts {
		opt(&defaults)
	}
	if defaults.logger == nil {
		defaults.logger = zap.NewNop()
	}
	return defaults
}
