// Package mcpserver exposes the coach as MCP tools so agents can ask it for
// advice without going through the HTTP API.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/matiasleandrokruk/simonsays/internal/domain/coach"
)

const (
	ToolAskCoach     = "ask_coach"
	ToolListPersonas = "list_personas"
)

// Asker is satisfied by *coach.ChatService.
type Asker interface {
	Ask(ctx context.Context, persona coach.Persona, uc coach.UserContext, text string) *coach.Reply
}

// AskInput is the ask_coach argument object.
type AskInput struct {
	Persona    string `json:"persona,omitempty" jsonschema:"coach persona id, see list_personas; unknown ids use productivity"`
	Message    string `json:"message" jsonschema:"what to ask the coach"`
	Name       string `json:"name,omitempty" jsonschema:"name the coach should use"`
	Profession string `json:"profession,omitempty" jsonschema:"the asker's profession"`
	Focus      string `json:"focus,omitempty" jsonschema:"what the asker is working on"`
}

// AskOutput is the structured ask_coach result.
type AskOutput struct {
	Persona coach.Persona `json:"persona"`
	Reply   string        `json:"reply"`
	Failed  bool          `json:"failed"`
	Kind    string        `json:"kind,omitempty"`
}

// ListPersonasInput takes no arguments.
type ListPersonasInput struct{}

// ListPersonasOutput is the structured list_personas result.
type ListPersonasOutput struct {
	Personas []coach.PersonaInfo `json:"personas"`
}

// New builds an MCP server with the coach tools registered.
func New(asker Asker, version string, logger *zap.Logger) *mcp.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &toolHandlers{asker: asker, logger: logger}

	server := mcp.NewServer(&mcp.Implementation{Name: "simonsays", Version: version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolAskCoach,
		Description: "Ask a productivity coach persona for advice. Returns the coach reply, or a short fallback note when the model is unavailable.",
	}, h.askCoach)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolListPersonas,
		Description: "List the coach personas accepted by ask_coach.",
	}, h.listPersonas)
	return server
}

// Run serves the coach tools over stdin/stdout until ctx is done or the
// client disconnects.
func Run(ctx context.Context, server *mcp.Server) error {
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

type toolHandlers struct {
	asker  Asker
	logger *zap.Logger
}

func (h *toolHandlers) askCoach(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, AskOutput{}, coach.ErrEmptyMessage
	}
	persona := coach.PersonaOrDefault(in.Persona)
	reply := h.asker.Ask(ctx, persona, coach.UserContext{
		Name:       in.Name,
		Profession: in.Profession,
		Focus:      in.Focus,
	}, in.Message)

	h.logger.Debug("mcp ask_coach",
		zap.String("persona", string(persona)),
		zap.Bool("failed", reply.Failed))

	out := AskOutput{
		Persona: persona,
		Reply:   reply.Message.Text,
		Failed:  reply.Failed,
		Kind:    reply.Kind,
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: reply.Message.Text}},
	}, out, nil
}

func (h *toolHandlers) listPersonas(_ context.Context, _ *mcp.CallToolRequest, _ ListPersonasInput) (*mcp.CallToolResult, ListPersonasOutput, error) {
	cat := coach.Catalogue()
	var b strings.Builder
	for _, p := range cat {
		fmt.Fprintf(&b, "%s: %s. %s\n", p.ID, p.Title, p.Description)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: b.String()}},
	}, ListPersonasOutput{Personas: cat}, nil
}
