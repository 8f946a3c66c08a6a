// No t.Parallel(): env vars are process-global.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnvKeys = []string{
	envKeyGeminiAPIKey, envKeyGeminiBaseURL, envKeyGeminiModel, envKeyLLMProvider,
	envKeyOllamaBaseURL, envKeyOllamaChatModel, envKeyLLMMaxAttempts, envKeyLLMBaseDelayMS,
	envKeyDBPath, envKeyHTTPPort, envKeyJWTSecret, envKeyJWTExpiry, envKeyFreeDailyLimit,
	envKeyRevenueCatAPIKey, envKeyRevenueCatBaseURL, envKeyProEntitlement, envKeyLogLevel, envKeyLogFormat,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allEnvKeys {
		t.Setenv(k, "")
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simonsays.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.LLM.MaxAttempts)
	assert.Equal(t, time.Second, cfg.LLM.BaseDelay())
	assert.Equal(t, 20, cfg.Usage.FreeDailyLimit)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.ErrorIs(t, cfg.RequireJWTSecret(), ErrMissingJWTSecret)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
http:
  port: 9090
llm:
  provider: Ollama
  max_attempts: 5
  gemini_model: gemini-2.0-flash
auth:
  jwt_expiry: 2h
usage:
  free_daily_limit: 10
`)
	t.Setenv(envKeyFreeDailyLimit, "7")
	t.Setenv(envKeyGeminiAPIKey, "key-from-env")
	t.Setenv(envKeyJWTSecret, "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, ProviderOllama, cfg.LLM.Provider, "provider is normalised")
	assert.Equal(t, 5, cfg.LLM.MaxAttempts)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.GeminiModel)
	assert.Equal(t, 2*time.Hour, cfg.Auth.JWTExpiry)
	assert.Equal(t, 7, cfg.Usage.FreeDailyLimit, "env overrides the file")
	assert.Equal(t, "key-from-env", cfg.LLM.GeminiAPIKey)
	assert.Equal(t, 1000, cfg.LLM.BaseDelayMS, "untouched fields keep defaults")
	assert.NoError(t, cfg.RequireJWTSecret())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(envKeyLLMProvider, "genai")
	t.Setenv(envKeyLLMBaseDelayMS, "250")
	t.Setenv(envKeyJWTExpiry, "90m")
	t.Setenv(envKeyDBPath, "/tmp/x.db")
	t.Setenv(envKeyProEntitlement, "premium")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderGenAI, cfg.LLM.Provider)
	assert.Equal(t, 250*time.Millisecond, cfg.LLM.BaseDelay())
	assert.Equal(t, 90*time.Minute, cfg.Auth.JWTExpiry)
	assert.Equal(t, "/tmp/x.db", cfg.DB.Path)
	assert.Equal(t, "premium", cfg.Billing.ProEntitlement)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]struct {
		env  map[string]string
		yaml string
	}{
		"zero attempts":    {env: map[string]string{envKeyLLMMaxAttempts: "0"}},
		"negative delay":   {env: map[string]string{envKeyLLMBaseDelayMS: "-5"}},
		"zero limit":       {env: map[string]string{envKeyFreeDailyLimit: "0"}},
		"non-int attempts": {env: map[string]string{envKeyLLMMaxAttempts: "three"}},
		"bad expiry":       {env: map[string]string{envKeyJWTExpiry: "forever"}},
		"unknown provider": {env: map[string]string{envKeyLLMProvider: "openai"}},
		"bad port":         {env: map[string]string{envKeyHTTPPort: "70000"}},
		"bad yaml":         {yaml: "llm: [unclosed"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			path := ""
			if tc.yaml != "" {
				path = writeYAML(t, tc.yaml)
			}
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
