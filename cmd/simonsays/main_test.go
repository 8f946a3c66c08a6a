// No t.Parallel(): configuration is read from process-global env vars.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/simonsays/internal/infra/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// isolateEnv points the binary at a scratch database and quiet logs.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "simonsays.db")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("REVENUECAT_API_KEY", "")
	return dbPath
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "simonsays version")
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "frobnicate")
	assert.Error(t, err)
}

func TestMigrateCommand_IsIdempotent(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "applied")
	assert.Contains(t, out, "schema version")

	out, err = execute(t, "migrate")
	require.NoError(t, err)
	assert.NotContains(t, out, "applied")
}

func ollamaStub(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"message":     map[string]string{"role": "assistant", "content": reply},
			"done":        true,
			"done_reason": "stop",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAskCommand_PrintsReply(t *testing.T) {
	isolateEnv(t)
	srv := ollamaStub(t, "Write the first sentence now.")
	t.Setenv("LLM_PROVIDER", config.ProviderOllama)
	t.Setenv("OLLAMA_BASE_URL", srv.URL)

	out, err := execute(t, "ask", "--persona", "creative", "-m", "I am stuck on chapter two")
	require.NoError(t, err)
	assert.Equal(t, "Write the first sentence now.\n", out)
}

func TestAskCommand_FallbackIsPrintedAndFails(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LLM_MAX_ATTEMPTS", "1")

	out, err := execute(t, "ask", "-m", "hello")
	require.Error(t, err, "gemini without a key is a config failure")
	assert.NotEmpty(t, out)
	assert.Contains(t, err.Error(), "config")
}

func TestAskCommand_RequiresMessage(t *testing.T) {
	isolateEnv(t)

	_, err := execute(t, "ask", "--persona", "focus")
	assert.ErrorContains(t, err, "--message")
}

func TestServeCommand_RequiresJWTSecret(t *testing.T) {
	isolateEnv(t)

	_, err := execute(t, "serve")
	assert.ErrorIs(t, err, config.ErrMissingJWTSecret)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestServe_StartsAndStopsOnCancel(t *testing.T) {
	isolateEnv(t)
	t.Setenv("JWT_SECRET", "test-secret-key-32-chars-min!!!")
	port := freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, &globalFlags{}, port) }()

	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(healthURL) //nolint:noctx
		if err != nil {
			return false
		}
		resp.Body.Close() //nolint:errcheck
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
