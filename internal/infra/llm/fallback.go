package llm

import "errors"

// Fallback texts shown in place of a coach reply.
const (
	FallbackQuota     = "I've hit my usage limit with the AI service for now. Please try again in a little while."
	FallbackAuth      = "I can't reach the AI service because its credentials were rejected. Please let the app team know."
	FallbackMalformed = "I got an unexpected answer from the AI service. Could you send that again?"
	FallbackCanceled  = "That took too long, so I stopped waiting. Could you try again?"
	FallbackGeneric   = "I'm having trouble connecting right now. Could you try asking your question again? In the meantime, take a moment to reflect on what outcome you're hoping for."

	fallbackConfigPrefix = "The coach isn't configured yet: "
)

// FallbackMessage converts any completion failure into a human-readable note
// so callers never need kind-specific handling. Config errors are surfaced
// verbatim after a fixed prefix.
func FallbackMessage(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindConfig:
		var llmErr *Error
		if errors.As(err, &llmErr) && llmErr.Message != "" {
			return fallbackConfigPrefix + llmErr.Message + "."
		}
		return fallbackConfigPrefix + "missing API credential."
	case KindQuota:
		return FallbackQuota
	case KindAuth:
		return FallbackAuth
	case KindMalformed:
		return FallbackMalformed
	case KindCanceled:
		return FallbackCanceled
	default:
		return FallbackGeneric
	}
}
