package llm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GenAIProvider implements LLMProvider on top of the google.golang.org/genai SDK.
// It produces the same turns as GeminiProvider; the SDK owns the transport.
type GenAIProvider struct {
	client *genai.Client
	cfg    GeminiConfig
	logger *zap.Logger
}

// NewGenAIProvider creates the SDK client. BaseURL overrides the SDK endpoint
// when set (used by tests against httptest servers).
func NewGenAIProvider(ctx context.Context, cfg GeminiConfig, opts ...Option) (*GenAIProvider, error) {
	o := applyOptions(providerOptions{}, opts)
	if cfg.APIKey == "" {
		return nil, newConfigError("genai api key is not configured")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	if o.httpClient != nil {
		clientCfg.HTTPClient = o.httpClient
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIProvider{client: client, cfg: cfg, logger: o.logger}, nil
}

// Generate performs one GenerateContent call. SDK API errors are classified by
// their HTTP code exactly like the REST adapter.
func (p *GenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if len(req.Contents) == 0 {
		return nil, newConfigError("request has no contents")
	}
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	result, err := p.client.Models.GenerateContent(ctx, model, toGenAIContents(req.Contents), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(firstNonZero(req.Temperature, p.cfg.Temperature)),
		MaxOutputTokens: int32(firstNonZeroInt(req.MaxOutputTokens, p.cfg.MaxOutputTokens)),
	})
	if err != nil {
		return nil, classifyGenAIError(ctx, err)
	}

	if len(result.Candidates) == 0 {
		return nil, newMalformedError("response has no candidates", nil)
	}
	first := result.Candidates[0]
	if first.Content == nil || len(first.Content.Parts) == 0 || first.Content.Parts[0] == nil {
		return nil, newMalformedError("first candidate has no content parts", nil)
	}

	resp := &Response{
		Text:         first.Content.Parts[0].Text,
		FinishReason: string(first.FinishReason),
		Truncated:    first.FinishReason == genai.FinishReasonMaxTokens,
		Model:        model,
	}
	if resp.Truncated {
		p.logger.Warn("genai response hit output token cap", zap.String("model", model))
	}
	return resp, nil
}

func toGenAIContents(contents []Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		parts := make([]*genai.Part, 0, len(c.Parts))
		for _, part := range c.Parts {
			if part.Text != "" {
				parts = append(parts, genai.NewPartFromText(part.Text))
			}
			if part.InlineData != nil {
				parts = append(parts, genai.NewPartFromBytes(part.InlineData.Data, part.InlineData.MIMEType))
			}
		}
		out = append(out, &genai.Content{Role: string(c.Role), Parts: parts})
	}
	return out
}

func classifyGenAIError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newStatusError(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return newStatusError(apiErrPtr.Code, apiErrPtr.Message)
	}
	return newTransportError(ctx, err)
}

// ModelInfo returns static metadata for this provider/model.
func (p *GenAIProvider) ModelInfo() ModelMeta {
	return ModelMeta{ID: p.cfg.Model, Provider: "genai", MaxTokens: p.cfg.MaxOutputTokens}
}

// HealthCheck fetches the model descriptor through the SDK.
func (p *GenAIProvider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.Models.Get(ctx, p.cfg.Model, nil); err != nil {
		return classifyGenAIError(ctx, err)
	}
	return nil
}
