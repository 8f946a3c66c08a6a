// Package llm — provider router.
// Router selects the LLMProvider named by configuration (gemini, genai, ollama).
package llm

import (
	"context"
	"fmt"
	"sort"
)

// Router selects a LLMProvider for each request.
type Router struct {
	providers       map[string]LLMProvider
	defaultProvider string
}

// NewRouter creates a Router with an initial set of providers and a default key.
func NewRouter(providers map[string]LLMProvider, defaultProvider string) *Router {
	ps := make(map[string]LLMProvider, len(providers))
	for k, v := range providers {
		ps[k] = v
	}
	return &Router{providers: ps, defaultProvider: defaultProvider}
}

// Register adds (or replaces) a provider under the given key.
func (r *Router) Register(key string, p LLMProvider) {
	r.providers[key] = p
}

// Route returns the default provider.
// Returns an error if the default provider is not registered.
func (r *Router) Route(_ context.Context) (LLMProvider, error) {
	p, ok := r.providers[r.defaultProvider]
	if !ok {
		return nil, fmt.Errorf("llm router: provider %q not registered (available: %v)", r.defaultProvider, r.keys())
	}
	return p, nil
}

// Generate routes the request to the default provider, so a Router can stand
// in wherever a single LLMProvider is expected.
func (r *Router) Generate(ctx context.Context, req Request) (*Response, error) {
	p, err := r.Route(ctx)
	if err != nil {
		return nil, newConfigError(err.Error())
	}
	return p.Generate(ctx, req)
}

// ModelInfo reports the default provider's metadata, or a zero value when unset.
func (r *Router) ModelInfo() ModelMeta {
	if p, ok := r.providers[r.defaultProvider]; ok {
		return p.ModelInfo()
	}
	return ModelMeta{Provider: r.defaultProvider}
}

// HealthCheck checks the default provider.
func (r *Router) HealthCheck(ctx context.Context) error {
	p, err := r.Route(ctx)
	if err != nil {
		return err
	}
	return p.HealthCheck(ctx)
}

// keys returns the registered provider names, sorted (for error messages).
func (r *Router) keys() []string {
	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
