package mcpserver

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/simonsays/internal/domain/coach"
)

type recordingAsker struct {
	mu      sync.Mutex
	persona coach.Persona
	uc      coach.UserContext
	text    string
	reply   coach.Reply
}

func (a *recordingAsker) Ask(_ context.Context, persona coach.Persona, uc coach.UserContext, text string) *coach.Reply {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.persona, a.uc, a.text = persona, uc, text
	r := a.reply
	return &r
}

func connect(t *testing.T, asker Asker) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := New(asker, "test", nil)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() }) //nolint:errcheck

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() }) //nolint:errcheck
	return cs
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestServer_ListsTools(t *testing.T) {
	cs := connect(t, &recordingAsker{})

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{ToolAskCoach, ToolListPersonas}, names)
}

func TestAskCoach_PassesContextAndReturnsReply(t *testing.T) {
	asker := &recordingAsker{reply: coach.Reply{Message: coach.Message{Role: coach.RoleAssistant, Text: "Block two hours tomorrow morning."}}}
	cs := connect(t, asker)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name: ToolAskCoach,
		Arguments: map[string]any{
			"persona":    "Strategy",
			"message":    "How do I plan the quarter?",
			"name":       "Ada",
			"profession": "founder",
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "Block two hours tomorrow morning.", textOf(t, res))

	asker.mu.Lock()
	defer asker.mu.Unlock()
	assert.Equal(t, coach.PersonaStrategy, asker.persona)
	assert.Equal(t, "How do I plan the quarter?", asker.text)
	assert.Equal(t, coach.UserContext{Name: "Ada", Profession: "founder"}, asker.uc)
}

func TestAskCoach_UnknownPersonaFallsBackAndFailureIsReported(t *testing.T) {
	asker := &recordingAsker{reply: coach.Reply{
		Message: coach.Message{Role: coach.RoleAssistant, Text: "The coach is busy right now."},
		Failed:  true,
		Kind:    "quota",
	}}
	cs := connect(t, asker)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolAskCoach,
		Arguments: map[string]any{"persona": "astrology", "message": "help"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "The coach is busy right now.", textOf(t, res))

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out AskOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, coach.DefaultPersona, out.Persona)
	assert.True(t, out.Failed)
	assert.Equal(t, "quota", out.Kind)
}

func TestAskCoach_BlankMessageIsToolError(t *testing.T) {
	cs := connect(t, &recordingAsker{})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolAskCoach,
		Arguments: map[string]any{"message": "   "},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListPersonas(t *testing.T) {
	cs := connect(t, &recordingAsker{})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: ToolListPersonas, Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := textOf(t, res)
	for _, p := range coach.Catalogue() {
		assert.Contains(t, text, string(p.ID))
	}
}
