package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies completion failures. The retry loop only consults
// Retryable; status-code knowledge lives in ClassifyStatus.
type ErrorKind int

const (
	// KindTransient covers network failures, 5xx and unrecognised statuses.
	KindTransient ErrorKind = iota
	// KindConfig is a missing credential; raised before any network attempt.
	KindConfig
	// KindQuota is a rate or quota rejection.
	KindQuota
	// KindAuth is an authentication or permission rejection.
	KindAuth
	// KindMalformed is a 2xx response without the expected candidate/content shape.
	KindMalformed
	// KindCanceled means the caller's context ended the call.
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindQuota:
		return "quota"
	case KindAuth:
		return "auth"
	case KindMalformed:
		return "malformed"
	case KindCanceled:
		return "canceled"
	default:
		return "transient"
	}
}

// Retryable reports whether another attempt may succeed.
func (k ErrorKind) Retryable() bool {
	return k == KindTransient
}

// ClassifyStatus maps a non-2xx HTTP status to an ErrorKind.
func ClassifyStatus(status int) ErrorKind {
	switch status {
	case http.StatusTooManyRequests:
		return KindQuota
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	default:
		return KindTransient
	}
}

// Error is the typed failure returned by providers and the Completer.
type Error struct {
	Kind    ErrorKind
	Status  int // HTTP status when one was received, else 0
	Message string
	// Attempts is set by Completer once the retry loop has finished.
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("llm %s error (status %d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("llm %s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies any error. Untyped errors are treated as transient.
func KindOf(err error) ErrorKind {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindTransient
}

func newConfigError(msg string) error {
	return &Error{Kind: KindConfig, Message: msg}
}

func newMalformedError(msg string, cause error) error {
	return &Error{Kind: KindMalformed, Message: msg, Err: cause}
}

func newStatusError(status int, msg string) error {
	return &Error{Kind: ClassifyStatus(status), Status: status, Message: msg}
}

// newTransportError wraps a failure that happened before a status was received.
func newTransportError(ctx context.Context, cause error) error {
	if ctx.Err() != nil {
		return &Error{Kind: KindCanceled, Message: "request abandoned", Err: ctx.Err()}
	}
	return &Error{Kind: KindTransient, Message: "request failed", Err: cause}
}
