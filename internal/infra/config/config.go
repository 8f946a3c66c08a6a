// Package config provides application-wide configuration.
// Load starts from defaults, overlays an optional YAML file, then environment
// variables. All fields have safe defaults so the binary runs locally without
// any setup; only the Gemini key is needed for real completions.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the coaching service.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	DB      DBConfig      `yaml:"db"`
	LLM     LLMConfig     `yaml:"llm"`
	Auth    AuthConfig    `yaml:"auth"`
	Billing BillingConfig `yaml:"billing"`
	Usage   UsageConfig   `yaml:"usage"`
	Log     LogConfig     `yaml:"log"`
}

type HTTPConfig struct {
	Port int `yaml:"port"` // HTTP_PORT, default 8080
}

type DBConfig struct {
	Path string `yaml:"path"` // DB_PATH, default "./data/simonsays.db"
}

type LLMConfig struct {
	Provider        string `yaml:"provider"`          // LLM_PROVIDER: gemini|genai|ollama, default "gemini"
	GeminiAPIKey    string `yaml:"gemini_api_key"`    // GEMINI_API_KEY: empty means every completion falls back
	GeminiBaseURL   string `yaml:"gemini_base_url"`   // GEMINI_BASE_URL
	GeminiModel     string `yaml:"gemini_model"`      // GEMINI_MODEL, default "gemini-2.5-flash"
	OllamaBaseURL   string `yaml:"ollama_base_url"`   // OLLAMA_BASE_URL, default "http://localhost:11434"
	OllamaChatModel string `yaml:"ollama_chat_model"` // OLLAMA_CHAT_MODEL, default "llama3.2:3b"
	MaxAttempts     int    `yaml:"max_attempts"`      // LLM_MAX_ATTEMPTS, default 3
	BaseDelayMS     int    `yaml:"base_delay_ms"`     // LLM_BASE_DELAY_MS, default 1000
}

// BaseDelay returns BaseDelayMS as a duration.
func (c LLMConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMS) * time.Millisecond
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"` // JWT_SECRET: required to serve
	JWTExpiry time.Duration `yaml:"jwt_expiry"` // JWT_EXPIRY, default 24h
}

type BillingConfig struct {
	RevenueCatAPIKey  string `yaml:"revenuecat_api_key"`  // REVENUECAT_API_KEY: empty selects the static free tier
	RevenueCatBaseURL string `yaml:"revenuecat_base_url"` // REVENUECAT_BASE_URL
	ProEntitlement    string `yaml:"pro_entitlement"`     // PRO_ENTITLEMENT, default "pro"
}

type UsageConfig struct {
	FreeDailyLimit int `yaml:"free_daily_limit"` // FREE_DAILY_LIMIT, default 20
}

type LogConfig struct {
	Level  string `yaml:"level"`  // LOG_LEVEL, default "info"
	Format string `yaml:"format"` // LOG_FORMAT: json|console, default "json"
}

const (
	envKeyGeminiAPIKey      = "GEMINI_API_KEY"
	envKeyGeminiBaseURL     = "GEMINI_BASE_URL"
	envKeyGeminiModel       = "GEMINI_MODEL"
	envKeyLLMProvider       = "LLM_PROVIDER"
	envKeyOllamaBaseURL     = "OLLAMA_BASE_URL"
	envKeyOllamaChatModel   = "OLLAMA_CHAT_MODEL"
	envKeyLLMMaxAttempts    = "LLM_MAX_ATTEMPTS"
	envKeyLLMBaseDelayMS    = "LLM_BASE_DELAY_MS"
	envKeyDBPath            = "DB_PATH"
	envKeyHTTPPort          = "HTTP_PORT"
	envKeyJWTSecret         = "JWT_SECRET"
	envKeyJWTExpiry         = "JWT_EXPIRY"
	envKeyFreeDailyLimit    = "FREE_DAILY_LIMIT"
	envKeyRevenueCatAPIKey  = "REVENUECAT_API_KEY"
	envKeyRevenueCatBaseURL = "REVENUECAT_BASE_URL"
	envKeyProEntitlement    = "PRO_ENTITLEMENT"
	envKeyLogLevel          = "LOG_LEVEL"
	envKeyLogFormat         = "LOG_FORMAT"
)

// Supported LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderGenAI  = "genai"
	ProviderOllama = "ollama"
)

// ErrMissingJWTSecret is returned by RequireJWTSecret.
var ErrMissingJWTSecret = errors.New("config: JWT_SECRET is required")

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		DB:   DBConfig{Path: "./data/simonsays.db"},
		LLM: LLMConfig{
			Provider:        ProviderGemini,
			GeminiBaseURL:   "https://generativelanguage.googleapis.com/v1beta",
			GeminiModel:     "gemini-2.5-flash",
			OllamaBaseURL:   "http://localhost:11434",
			OllamaChatModel: "llama3.2:3b",
			MaxAttempts:     3,
			BaseDelayMS:     1000,
		},
		Auth:    AuthConfig{JWTExpiry: 24 * time.Hour},
		Billing: BillingConfig{RevenueCatBaseURL: "https://api.revenuecat.com", ProEntitlement: "pro"},
		Usage:   UsageConfig{FreeDailyLimit: 20},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration. path may be empty; a named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.LLM.GeminiAPIKey, envKeyGeminiAPIKey)
	setString(&cfg.LLM.GeminiBaseURL, envKeyGeminiBaseURL)
	setString(&cfg.LLM.GeminiModel, envKeyGeminiModel)
	setString(&cfg.LLM.Provider, envKeyLLMProvider)
	setString(&cfg.LLM.OllamaBaseURL, envKeyOllamaBaseURL)
	setString(&cfg.LLM.OllamaChatModel, envKeyOllamaChatModel)
	setString(&cfg.DB.Path, envKeyDBPath)
	setString(&cfg.Auth.JWTSecret, envKeyJWTSecret)
	setString(&cfg.Billing.RevenueCatAPIKey, envKeyRevenueCatAPIKey)
	setString(&cfg.Billing.RevenueCatBaseURL, envKeyRevenueCatBaseURL)
	setString(&cfg.Billing.ProEntitlement, envKeyProEntitlement)
	setString(&cfg.Log.Level, envKeyLogLevel)
	setString(&cfg.Log.Format, envKeyLogFormat)

	for key, dst := range map[string]*int{
		envKeyLLMMaxAttempts: &cfg.LLM.MaxAttempts,
		envKeyLLMBaseDelayMS: &cfg.LLM.BaseDelayMS,
		envKeyHTTPPort:       &cfg.HTTP.Port,
		envKeyFreeDailyLimit: &cfg.Usage.FreeDailyLimit,
	} {
		if err := setInt(dst, key); err != nil {
			return err
		}
	}

	if v := os.Getenv(envKeyJWTExpiry); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", envKeyJWTExpiry, err)
		}
		cfg.Auth.JWTExpiry = d
	}
	return nil
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderGenAI, ProviderOllama:
	default:
		return fmt.Errorf("config: unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.MaxAttempts <= 0 {
		return fmt.Errorf("config: llm max attempts must be positive, got %d", c.LLM.MaxAttempts)
	}
	if c.LLM.BaseDelayMS <= 0 {
		return fmt.Errorf("config: llm base delay must be positive, got %dms", c.LLM.BaseDelayMS)
	}
	if c.Usage.FreeDailyLimit <= 0 {
		return fmt.Errorf("config: free daily limit must be positive, got %d", c.Usage.FreeDailyLimit)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: invalid http port %d", c.HTTP.Port)
	}
	if c.Auth.JWTExpiry <= 0 {
		return fmt.Errorf("config: jwt expiry must be positive, got %s", c.Auth.JWTExpiry)
	}
	return nil
}

// RequireJWTSecret is checked by commands that issue tokens.
func (c Config) RequireJWTSecret() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.HTTP.Port)
}

// setString overwrites dst when the environment variable key is non-empty.
func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}
