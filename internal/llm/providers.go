package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/bimmerbailey/aura/internal/config"
	"github.com/bimmerbailey/aura/internal/llm/gemini"
	"github.com/bimmerbailey/aura/internal/llm/ollama"
)

// resolveAPIKey checks config first, then falls back to environment variable.
// Returns empty string if neither is set.
func resolveAPIKey(configKey, envVarName string) string {
	if configKey != "" {
		return configKey
	}
	return os.Getenv(envVarName)
}

// newGeminiProvider creates the default Gemini provider.
func newGeminiProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Provider, error) {
	gc := cfg.LLM.Gemini
	p, err := gemini.New(ctx, gemini.Config{
		APIKey:   resolveAPIKey(gc.APIKey, "GEMINI_API_KEY"),
		Project:  gc.Project,
		Location: gc.Location,
		Model:    gc.Model,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini provider: %w", err)
	}

	logger.Info("initialized gemini provider", "model", gc.Model, "project", gc.Project)
	return &geminiAdapter{provider: p}, nil
}

// newOllamaProvider creates an Ollama provider backed by the native client,
// which supports schema-constrained output.
func newOllamaProvider(cfg *config.Config, logger *slog.Logger) (Provider, error) {
	keepAlive, err := config.ParseDuration(cfg.LLM.Ollama.KeepAlive)
	if err != nil {
		return nil, fmt.Errorf("invalid llm.ollama.keep_alive: %w", err)
	}

	p, err := ollama.New(ollama.Config{
		Host:      cfg.LLM.Ollama.Host,
		Model:     cfg.LLM.Ollama.Model,
		NumCtx:    cfg.LLM.Ollama.NumCtx,
		KeepAlive: keepAlive,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama provider: %w", err)
	}

	logger.Info("initialized ollama provider",
		"host", cfg.LLM.Ollama.Host,
		"model", cfg.LLM.Ollama.Model,
	)
	return &ollamaAdapter{provider: p}, nil
}

// newOpenAIProvider creates an OpenAI provider.
func newOpenAIProvider(cfg *config.Config, logger *slog.Logger) (Provider, error) {
	apiKey := resolveAPIKey(cfg.LLM.OpenAI.APIKey, "OPENAI_API_KEY")

	if apiKey == "" {
		return nil, fmt.Errorf(
			"openai api key not configured: set OPENAI_API_KEY environment variable or llm.openai.api_key in config",
		)
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(cfg.LLM.OpenAI.Model),
	}

	if cfg.LLM.OpenAI.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.LLM.OpenAI.BaseURL))
	}

	if orgID := resolveAPIKey(cfg.LLM.OpenAI.OrgID, "OPENAI_ORG_ID"); orgID != "" {
		opts = append(opts, openai.WithOrganization(orgID))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai provider: %w", err)
	}

	logger.Info("initialized openai provider",
		"model", cfg.LLM.OpenAI.Model,
		"base_url", cfg.LLM.OpenAI.BaseURL,
	)

	return &langchainAdapter{
		model:        model,
		defaultModel: cfg.LLM.OpenAI.Model,
		providerType: "openai",
		jsonMode:     true,
		logger:       logger,
	}, nil
}

// newAnthropicProvider creates an Anthropic/Claude provider.
func newAnthropicProvider(cfg *config.Config, logger *slog.Logger) (Provider, error) {
	apiKey := resolveAPIKey(cfg.LLM.Anthropic.APIKey, "ANTHROPIC_API_KEY")

	if apiKey == "" {
		return nil, fmt.Errorf(
			"anthropic api key not configured: set ANTHROPIC_API_KEY environment variable or llm.anthropic.api_key in config",
		)
	}

	model, err := anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(cfg.LLM.Anthropic.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic provider: %w", err)
	}

	logger.Info("initialized anthropic provider",
		"model", cfg.LLM.Anthropic.Model,
	)

	return &langchainAdapter{
		model:        model,
		defaultModel: cfg.LLM.Anthropic.Model,
		providerType: "anthropic",
		logger:       logger,
	}, nil
}
