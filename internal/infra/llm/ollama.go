// Package llm — Ollama HTTP adapter for local development.
// OllamaProvider calls the local Ollama REST API using stdlib net/http.
// Endpoints used:
//   - POST /api/chat  : non-streaming chat completion (images as base64 strings)
//   - GET  /api/tags  : health check (lists available models)
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OllamaProvider implements LLMProvider against a running Ollama instance.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOllamaProvider creates an OllamaProvider with a 30s default timeout.
func NewOllamaProvider(baseURL, model string, opts ...Option) *OllamaProvider {
	o := applyOptions(providerOptions{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, opts)
	return &OllamaProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: o.httpClient,
		logger:     o.logger,
	}
}

// ─── internal Ollama JSON types ──────────────────────────────────────────────

type ollamaChatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message    *ollamaChatMessage `json:"message"`
	DoneReason string             `json:"done_reason"`
	Done       bool               `json:"done"`
}

// ─── LLMProvider implementation ─────────────────────────────────────────────

// Generate performs a non-streaming chat via POST /api/chat.
func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: toOllamaMessages(req.Contents),
		Stream:   false,
		Options:  buildChatOptions(req),
	})
	if err != nil {
		return nil, newConfigError(fmt.Sprintf("marshal request: %v", err))
	}

	status, respBody, postErr := p.doPost(ctx, "/api/chat", body)
	if postErr != nil {
		return nil, postErr
	}
	if status < 200 || status >= 300 {
		return nil, newStatusError(status, strings.TrimSpace(string(respBody)))
	}

	var ollamaResp ollamaChatResponse
	if decodeErr := json.Unmarshal(respBody, &ollamaResp); decodeErr != nil {
		return nil, newMalformedError("decode chat response", decodeErr)
	}
	if ollamaResp.Message == nil {
		return nil, newMalformedError("chat response has no message", nil)
	}
	return &Response{
		Text:         ollamaResp.Message.Content,
		FinishReason: ollamaResp.DoneReason,
		Truncated:    ollamaResp.DoneReason == "length",
		Model:        model,
	}, nil
}

// toOllamaMessages flattens parts: text parts are joined, inline data becomes
// base64 entries in images. The model role is renamed to assistant.
func toOllamaMessages(contents []Content) []ollamaChatMessage {
	msgs := make([]ollamaChatMessage, len(contents))
	for i, c := range contents {
		role := string(c.Role)
		if c.Role == RoleModel {
			role = "assistant"
		}
		var text []string
		var images []string
		for _, part := range c.Parts {
			if part.Text != "" {
				text = append(text, part.Text)
			}
			if part.InlineData != nil {
				images = append(images, base64.StdEncoding.EncodeToString(part.InlineData.Data))
			}
		}
		msgs[i] = ollamaChatMessage{Role: role, Content: strings.Join(text, "\n"), Images: images}
	}
	return msgs
}

// buildChatOptions converts Request fields into Ollama options map.
func buildChatOptions(req Request) map[string]any {
	opts := map[string]any{}
	if req.Temperature != 0 {
		opts["temperature"] = req.Temperature
	}
	if req.MaxOutputTokens != 0 {
		opts["num_predict"] = req.MaxOutputTokens
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}

// ModelInfo returns static metadata for this provider/model.
func (p *OllamaProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.model,
		Provider:  "ollama",
		MaxTokens: 4096,
	}
}

// HealthCheck calls GET /api/tags; returns nil if Ollama is reachable.
func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("ollama healthcheck: build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// doPost sends a POST request to baseURL+path and returns status and body.
func (p *OllamaProvider) doPost(ctx context.Context, path string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, newConfigError(fmt.Sprintf("ollama post %s: build request: %v", path, err))
	}
	req.Header.Set(headerContentType, mimeJSON)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, nil, newTransportError(ctx, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, newTransportError(ctx, fmt.Errorf("read response body: %w", err))
	}
	return resp.StatusCode, respBody, nil
}
