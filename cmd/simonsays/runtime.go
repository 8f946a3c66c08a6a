package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matiasleandrokruk/simonsays/internal/infra/billing"
	"github.com/matiasleandrokruk/simonsays/internal/infra/config"
	"github.com/matiasleandrokruk/simonsays/internal/infra/llm"
	"github.com/matiasleandrokruk/simonsays/internal/infra/logging"
)

// loadRuntime reads the configuration and builds the process logger.
func loadRuntime(flags *globalFlags) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	logger, _, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// newCompleter wires the configured provider behind the retry loop. The
// REST Gemini and Ollama adapters are always registered; the SDK-backed
// provider only when selected, since its client needs a key up front.
func newCompleter(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*llm.Completer, error) {
	gemini := llm.DefaultGeminiConfig(cfg.GeminiAPIKey)
	gemini.BaseURL = cfg.GeminiBaseURL
	gemini.Model = cfg.GeminiModel

	providers := map[string]llm.LLMProvider{
		config.ProviderGemini: llm.NewGeminiProvider(gemini, llm.WithLogger(logger)),
		config.ProviderOllama: llm.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaChatModel, llm.WithLogger(logger)),
	}
	if cfg.Provider == config.ProviderGenAI {
		sdkCfg := gemini
		sdkCfg.BaseURL = "" // the SDK resolves its own endpoint and API version
		p, err := llm.NewGenAIProvider(ctx, sdkCfg, llm.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("genai provider: %w", err)
		}
		providers[config.ProviderGenAI] = p
	}

	logger.Info("llm provider selected",
		zap.String("provider", cfg.Provider),
		zap.Bool("gemini_key_present", cfg.GeminiAPIKey != ""))

	policy := llm.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.MaxAttempts
	policy.BaseDelay = cfg.BaseDelay()
	retrier := llm.NewRetrier(policy, llm.WithRetryLogger(logger))
	return llm.NewCompleter(llm.NewRouter(providers, cfg.Provider), retrier, logger), nil
}

// entitlementSource is what both the chat service and the subscription
// endpoints need from billing.
type entitlementSource interface {
	IsUnlimited(ctx context.Context, userID string) bool
	SubscriptionInfo(ctx context.Context, userID string) (*billing.SubscriptionInfo, error)
}

// newEntitlements picks RevenueCat when a key is configured, otherwise every
// user is on the free tier.
func newEntitlements(cfg config.BillingConfig, logger *zap.Logger) entitlementSource {
	if cfg.RevenueCatAPIKey == "" {
		logger.Info("billing disabled, all users on the free tier")
		return billing.StaticChecker{}
	}
	return billing.NewRevenueCatClient(cfg.RevenueCatBaseURL, cfg.RevenueCatAPIKey,
		billing.WithLogger(logger),
		billing.WithEntitlement(cfg.ProEntitlement))
}
