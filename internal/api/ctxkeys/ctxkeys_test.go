package ctxkeys

import (
	"context"
	"testing"
)

func TestWithValue_SetsAndGetsTypedKey(t *testing.T) {
	t.Parallel()

	ctx := WithValue(context.Background(), UserID, "user-999")
	got, ok := ctx.Value(UserID).(string)
	if !ok {
		t.Fatalf("expected string value")
	}
	if got != "user-999" {
		t.Fatalf("expected user-999, got %q", got)
	}
}

func TestString_MissingOrForeignKey(t *testing.T) {
	t.Parallel()

	if got := String(context.Background(), UserID); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}

	//nolint:staticcheck // a bare string key must not satisfy the typed key
	ctx := context.WithValue(context.Background(), "user_id", "spoofed")
	if got := String(ctx, UserID); got != "" {
		t.Fatalf("untyped key leaked into typed lookup: %q", got)
	}
}
