// Package llm defines the model-agnostic completion abstraction.
// Types mirror the generateContent wire shape: ordered role-tagged turns, each a
// list of parts (text and/or inline image bytes).
package llm

// Role tags a turn sent to the completion endpoint.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Blob is inline binary data. Data is base64-encoded by encoding/json on the wire.
type Blob struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Part is one element of a turn: text or inline data.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inline_data,omitempty"`
}

// Content is a single role-tagged turn.
type Content struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// TextContent builds a single-part text turn.
func TextContent(role Role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

// Request is the input for one completion call.
type Request struct {
	// Model overrides the provider default when non-empty.
	Model    string
	Contents []Content
	// Temperature and MaxOutputTokens override provider defaults when non-zero.
	Temperature     float32
	MaxOutputTokens int
}

// Response is the output of a successful completion.
type Response struct {
	Text         string
	FinishReason string
	// Truncated is set when generation stopped on the output-token cap.
	Truncated bool
	Model     string
	// Attempts is filled in by Completer; providers leave it zero.
	Attempts int
}

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID        string // e.g. "gemini-2.5-flash", "llama3.2:3b"
	Provider  string // e.g. "gemini", "genai", "ollama"
	MaxTokens int    // default output cap
}
