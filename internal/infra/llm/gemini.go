// Package llm — Gemini REST adapter.
// GeminiProvider calls the generativelanguage API using stdlib net/http.
// Endpoints used:
//   - POST /models/{model}:generateContent: non-streaming completion
//   - GET  /models/{model}                 : health check
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"

	// maxResponseSize limits the response body to prevent memory exhaustion.
	maxResponseSize = 10 * 1024 * 1024

	// finishReasonMaxTokens is reported when output hit maxOutputTokens.
	finishReasonMaxTokens = "MAX_TOKENS"
)

// GeminiConfig holds connection and generation defaults for GeminiProvider.
type GeminiConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	Temperature     float32
	MaxOutputTokens int
}

// DefaultGeminiConfig returns the defaults the mobile app shipped with.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:          apiKey,
		BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		Model:           "gemini-2.5-flash",
		Timeout:         60 * time.Second,
		Temperature:     0.7,
		MaxOutputTokens: 500,
	}
}

// GeminiProvider implements LLMProvider against the Gemini REST API.
type GeminiProvider struct {
	cfg        GeminiConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiProvider creates a GeminiProvider. An empty API key is accepted here
// and reported as a config error on the first Generate call.
func NewGeminiProvider(cfg GeminiConfig, opts ...Option) *GeminiProvider {
	o := applyOptions(providerOptions{
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, opts)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GeminiProvider{cfg: cfg, httpClient: o.httpClient, logger: o.logger}
}

// ─── wire types ──────────────────────────────────────────────────────────────

type geminiGenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []Content              `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponsePart struct {
	Text *string `json:"text"`
}

type geminiCandidate struct {
	Content *struct {
		Parts []geminiResponsePart `json:"parts"`
	} `json:"content"`
	FinishReason string `json:"finishReason"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ─── LLMProvider implementation ─────────────────────────────────────────────

// Generate sends one generateContent call and extracts
// candidates[0].content.parts[0].text.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if p.cfg.APIKey == "" {
		return nil, newConfigError("gemini api key is not configured")
	}
	if len(req.Contents) == 0 {
		return nil, newConfigError("request has no contents")
	}

	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	body, err := json.Marshal(geminiRequest{
		Contents: req.Contents,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     firstNonZero(req.Temperature, p.cfg.Temperature),
			MaxOutputTokens: firstNonZeroInt(req.MaxOutputTokens, p.cfg.MaxOutputTokens),
		},
	})
	if err != nil {
		return nil, newConfigError(fmt.Sprintf("marshal request: %v", err))
	}

	p.logger.Debug("sending gemini request",
		zap.String("model", model),
		zap.Int("turns", len(req.Contents)),
		zap.Bool("has_image", hasInlineData(req.Contents)))

	status, respBody, err := p.doPost(ctx, p.endpoint(model, ":generateContent"), body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, newStatusError(status, apiErrorMessage(respBody))
	}

	resp, err := parseGeminiResponse(respBody)
	if err != nil {
		return nil, err
	}
	resp.Model = model
	if resp.Truncated {
		p.logger.Warn("gemini response hit output token cap",
			zap.String("model", model),
			zap.String("finish_reason", resp.FinishReason))
	}
	return resp, nil
}

// parseGeminiResponse decodes a 2xx body. Any deviation from the expected
// candidate/content shape is a malformed-response error.
func parseGeminiResponse(body []byte) (*Response, error) {
	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, newMalformedError("decode response", err)
	}
	if len(gr.Candidates) == 0 {
		return nil, newMalformedError("response has no candidates", nil)
	}
	first := gr.Candidates[0]
	if first.Content == nil || len(first.Content.Parts) == 0 {
		return nil, newMalformedError("first candidate has no content parts", nil)
	}
	if first.Content.Parts[0].Text == nil {
		return nil, newMalformedError("first content part has no text", nil)
	}
	return &Response{
		Text:         *first.Content.Parts[0].Text,
		FinishReason: first.FinishReason,
		Truncated:    first.FinishReason == finishReasonMaxTokens,
	}, nil
}

// ModelInfo returns static metadata for this provider/model.
func (p *GeminiProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.cfg.Model,
		Provider:  "gemini",
		MaxTokens: p.cfg.MaxOutputTokens,
	}
}

// HealthCheck calls GET /models/{model}; returns nil if the model is visible
// with the configured key.
func (p *GeminiProvider) HealthCheck(ctx context.Context) error {
	if p.cfg.APIKey == "" {
		return newConfigError("gemini api key is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint(p.cfg.Model, ""), nil)
	if err != nil {
		return fmt.Errorf("gemini healthcheck: build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return newTransportError(ctx, redactURL(err))
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return newStatusError(resp.StatusCode, "healthcheck")
	}
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (p *GeminiProvider) endpoint(model, method string) string {
	return fmt.Sprintf("%s/models/%s%s?key=%s", p.cfg.BaseURL, url.PathEscape(model), method, url.QueryEscape(p.cfg.APIKey))
}

// doPost sends body and returns the status and the size-limited response body.
func (p *GeminiProvider) doPost(ctx context.Context, endpoint string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, newConfigError(fmt.Sprintf("build request: %v", redactURL(err)))
	}
	req.Header.Set(headerContentType, mimeJSON)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, nil, newTransportError(ctx, redactURL(err))
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, newTransportError(ctx, fmt.Errorf("read response body: %w", err))
	}
	return resp.StatusCode, respBody, nil
}

// redactURL drops the request URL (which carries the API key) from transport errors.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

// apiErrorMessage extracts error.message from an API error body, falling back
// to a truncated raw body.
func apiErrorMessage(body []byte) string {
	var eb geminiErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		return eb.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func hasInlineData(contents []Content) bool {
	for _, c := range contents {
		for _, part := range c.Parts {
			if part.InlineData != nil {
				return true
			}
		}
	}
	return false
}

func firstNonZero(v, fallback float32) float32 {
	if v != 0 {
		return v
	}
	return fallback
}

func firstNonZeroInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
