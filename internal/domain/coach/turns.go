package coach

import (
	"errors"
	"time"

	"github.com/matiasleandrokruk/simonsays/internal/infra/llm"
)

const (
	primingPrefix   = "You are my coach. Here is your role and instructions: "
	acknowledgement = "Understood. I will coach you according to these principles. What would you like to work on?"

	// DefaultImageMIME is assumed when an attached image carries no MIME type.
	DefaultImageMIME = "image/jpeg"
)

// ErrEmptyHistory is returned when there is no message to reply to.
var ErrEmptyHistory = errors.New("conversation history is empty")

// Role is the author of a stored message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// roleLegacyCoach is how older clients stored assistant messages.
	roleLegacyCoach = "coach"
)

// ParseRole reads a stored role. Anything that is not an assistant role is a user turn.
func ParseRole(s string) Role {
	switch s {
	case string(RoleAssistant), roleLegacyCoach, string(llm.RoleModel):
		return RoleAssistant
	default:
		return RoleUser
	}
}

// Image is an inline attachment sent with the latest user message.
type Image struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Message is one entry of a conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Image     *Image    `json:"image,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BuildTurns lays out the completion turns: a priming user turn carrying the
// instruction, the canned model acknowledgement, every history message but the
// last, and finally the last message as a user turn with the optional image.
func BuildTurns(instruction string, history []Message, image *Image) ([]llm.Content, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}

	turns := make([]llm.Content, 0, len(history)+2)
	turns = append(turns,
		llm.TextContent(llm.RoleUser, primingPrefix+instruction),
		llm.TextContent(llm.RoleModel, acknowledgement),
	)

	for _, m := range history[:len(history)-1] {
		turns = append(turns, llm.TextContent(wireRole(m.Role), m.Text))
	}

	last := llm.Content{
		Role:  llm.RoleUser,
		Parts: []llm.Part{{Text: history[len(history)-1].Text}},
	}
	if image != nil && len(image.Data) > 0 {
		mime := image.MIMEType
		if mime == "" {
			mime = DefaultImageMIME
		}
		last.Parts = append(last.Parts, llm.Part{InlineData: &llm.Blob{MIMEType: mime, Data: image.Data}})
	}
	return append(turns, last), nil
}

func wireRole(r Role) llm.Role {
	if r == RoleAssistant {
		return llm.RoleModel
	}
	return llm.RoleUser
}
