package coach

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/simonsays/internal/infra/llm"
)

func TestBuildTurns_Layout(t *testing.T) {
	t.Parallel()

	history := []Message{
		{Role: RoleUser, Text: "I procrastinate"},
		{Role: RoleAssistant, Text: "Try a 10 minute timer."},
		{Role: RoleUser, Text: "It worked, now what?"},
	}

	got, err := BuildTurns("INSTR", history, nil)
	require.NoError(t, err)

	want := []llm.Content{
		llm.TextContent(llm.RoleUser, "You are my coach. Here is your role and instructions: INSTR"),
		llm.TextContent(llm.RoleModel, "Understood. I will coach you according to these principles. What would you like to work on?"),
		llm.TextContent(llm.RoleUser, "I procrastinate"),
		llm.TextContent(llm.RoleModel, "Try a 10 minute timer."),
		llm.TextContent(llm.RoleUser, "It worked, now what?"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("turns mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTurns_LengthIsHistoryPlusTwo(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 5; n++ {
		history := make([]Message, n)
		for i := range history {
			history[i] = Message{Role: RoleUser, Text: "m"}
		}
		got, err := BuildTurns("x", history, nil)
		require.NoError(t, err)
		assert.Len(t, got, n+2)
		assert.Equal(t, llm.RoleUser, got[len(got)-1].Role)
	}
}

func TestBuildTurns_ImageOnLastTurnOnly(t *testing.T) {
	t.Parallel()

	history := []Message{{Role: RoleUser, Text: "first"}, {Role: RoleAssistant, Text: "ok"}, {Role: RoleUser, Text: "see this"}}
	got, err := BuildTurns("x", history, &Image{Data: []byte{1, 2, 3}})
	require.NoError(t, err)

	last := got[len(got)-1]
	require.Len(t, last.Parts, 2)
	assert.Equal(t, "see this", last.Parts[0].Text)
	require.NotNil(t, last.Parts[1].InlineData)
	assert.Equal(t, DefaultImageMIME, last.Parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte{1, 2, 3}, last.Parts[1].InlineData.Data)

	for _, turn := range got[:len(got)-1] {
		for _, part := range turn.Parts {
			assert.Nil(t, part.InlineData)
		}
	}
}

func TestBuildTurns_KeepsExplicitImageMIME(t *testing.T) {
	t.Parallel()

	got, err := BuildTurns("x", []Message{{Role: RoleUser, Text: "chart"}}, &Image{MIMEType: "image/png", Data: []byte{9}})
	require.NoError(t, err)
	assert.Equal(t, "image/png", got[2].Parts[1].InlineData.MIMEType)
}

func TestBuildTurns_EmptyHistory(t *testing.T) {
	t.Parallel()

	_, err := BuildTurns("x", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestBuildTurns_LastMessageAlwaysUserTurn(t *testing.T) {
	t.Parallel()

	got, err := BuildTurns("x", []Message{{Role: RoleAssistant, Text: "odd"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, llm.RoleUser, got[2].Role)
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RoleAssistant, ParseRole("coach"))
	assert.Equal(t, RoleAssistant, ParseRole("assistant"))
	assert.Equal(t, RoleAssistant, ParseRole("model"))
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleUser, ParseRole(""))
}

func TestRoleMapping_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, r := range []Role{RoleUser, RoleAssistant} {
		assert.Equal(t, r, ParseRole(string(wireRole(r))))
	}
}
