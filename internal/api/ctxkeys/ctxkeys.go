// Package ctxkeys holds the context keys shared by middleware and handlers.
// It is a leaf package so api/middleware and api/handlers can both import it.
package ctxkeys

import "context"

// Key is the named type for all API context keys.
// context.Value compares type and value, so plain string keys from other
// packages never collide with these.
type Key string

const (
	// UserID is the authenticated user, injected by the auth middleware.
	UserID Key = "user_id"

	// Anonymous is "true" for accounts without linked credentials.
	Anonymous Key = "anonymous"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// String returns the value stored under key, or "" when absent.
func String(ctx context.Context, key Key) string {
	v, _ := ctx.Value(key).(string)
	return v
}
