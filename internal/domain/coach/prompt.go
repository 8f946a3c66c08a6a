package coach

import (
	"fmt"
	"strings"
)

const (
	toneMin = 1
	toneMax = 5

	toneHeader = "\n\nAdjust your communication style:"

	closingInstruction = "\n\nIMPORTANT: Be immediately actionable. No pleasantries or \"let me help\" - just deliver concrete next steps. Keep under 120 words unless they ask for deep analysis."
)

// ToneSettings are the user's 1..5 style sliders. Out-of-range values are clamped.
type ToneSettings struct {
	Formality  int `json:"formality"`
	Directness int `json:"directness"`
	Detail     int `json:"detail"`
}

// DefaultTone is the neutral position of every slider.
func DefaultTone() ToneSettings {
	return ToneSettings{Formality: 3, Directness: 3, Detail: 3}
}

// Clamp returns a copy with every value forced into 1..5.
func (t ToneSettings) Clamp() ToneSettings {
	return ToneSettings{
		Formality:  clampTone(t.Formality),
		Directness: clampTone(t.Directness),
		Detail:     clampTone(t.Detail),
	}
}

func clampTone(v int) int {
	return min(max(v, toneMin), toneMax)
}

// UserContext personalises the instruction. Every field is optional.
type UserContext struct {
	Name       string
	Profession string
	Focus      string
	Tone       *ToneSettings
}

// BuildInstruction renders the persona template followed by the user context,
// the tone clauses and the closing instruction. Output is deterministic.
func BuildInstruction(persona Persona, uc UserContext) string {
	var b strings.Builder
	b.WriteString(persona.Template())

	if uc.Name != "" {
		b.WriteString("\n\nYou are coaching ")
		b.WriteString(uc.Name)
	}
	if uc.Profession != "" {
		b.WriteString(", who works as a ")
		b.WriteString(uc.Profession)
	}
	if uc.Focus != "" {
		b.WriteString(". They are currently focused on: ")
		b.WriteString(uc.Focus)
	}

	if uc.Tone != nil {
		writeToneClauses(&b, uc.Tone.Clamp())
	}

	b.WriteString(closingInstruction)
	return b.String()
}

// writeToneClauses emits one clause per slider outside the neutral middle.
func writeToneClauses(b *strings.Builder, t ToneSettings) {
	b.WriteString(toneHeader)

	switch {
	case t.Formality <= 2:
		fmt.Fprintf(b, "\n- Be casual and conversational (formality level: %d/5)", t.Formality)
	case t.Formality >= 4:
		fmt.Fprintf(b, "\n- Be professional and formal (formality level: %d/5)", t.Formality)
	}

	switch {
	case t.Directness >= 4:
		fmt.Fprintf(b, "\n- Be very direct and to-the-point (directness level: %d/5)", t.Directness)
	case t.Directness <= 2:
		fmt.Fprintf(b, "\n- Be gentle and nuanced (directness level: %d/5)", t.Directness)
	}

	switch {
	case t.Detail >= 4:
		fmt.Fprintf(b, "\n- Provide detailed, comprehensive answers (detail level: %d/5)", t.Detail)
	case t.Detail <= 2:
		fmt.Fprintf(b, "\n- Keep responses brief and concise (detail level: %d/5)", t.Detail)
	}
}
