package llm

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/bimmerbailey/aura/internal/config"
	"github.com/bimmerbailey/aura/internal/schema"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewProvider_AllProviders(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.LLMConfig
		setupEnv    func(t *testing.T)
		expectError bool
		errorMsg    string
	}{
		{
			name: "gemini - with env var",
			cfg: config.LLMConfig{
				Provider: "gemini",
				Gemini:   config.GeminiConfig{Model: "gemini-2.5-flash"},
			},
			setupEnv: func(t *testing.T) {
				t.Setenv("GEMINI_API_KEY", "test-key")
			},
		},
		{
			name: "gemini - missing api key",
			cfg: config.LLMConfig{
				Provider: "gemini",
				Gemini:   config.GeminiConfig{Model: "gemini-2.5-flash"},
			},
			setupEnv: func(t *testing.T) {
				t.Setenv("GEMINI_API_KEY", "")
			},
			expectError: true,
			errorMsg:    "GEMINI_API_KEY",
		},
		{
			name: "ollama - valid config",
			cfg: config.LLMConfig{
				Provider: "ollama",
				Ollama: config.OllamaConfig{
					Host:  "http://localhost:11434",
					Model: "llama3.2",
				},
			},
			setupEnv: func(t *testing.T) {},
		},
		{
			name: "openai - with env var",
			cfg: config.LLMConfig{
				Provider: "openai",
				OpenAI:   config.OpenAIConfig{Model: "gpt-4o"},
			},
			setupEnv: func(t *testing.T) {
				t.Setenv("OPENAI_API_KEY", "sk-test-key")
			},
		},
		{
			name: "openai - with config key",
			cfg: config.LLMConfig{
				Provider: "openai",
				OpenAI: config.OpenAIConfig{
					APIKey: "sk-from-config",
					Model:  "gpt-4o",
				},
			},
			setupEnv: func(t *testing.T) {},
		},
		{
			name: "openai - missing api key",
			cfg: config.LLMConfig{
				Provider: "openai",
				OpenAI:   config.OpenAIConfig{Model: "gpt-4o"},
			},
			setupEnv: func(t *testing.T) {
				t.Setenv("OPENAI_API_KEY", "")
			},
			expectError: true,
			errorMsg:    "OPENAI_API_KEY",
		},
		{
			name: "anthropic - with env var",
			cfg: config.LLMConfig{
				Provider:  "anthropic",
				Anthropic: config.AnthropicConfig{Model: "claude-sonnet-4-5"},
			},
			setupEnv: func(t *testing.T) {
				t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test-key")
			},
		},
		{
			name: "anthropic - missing api key",
			cfg: config.LLMConfig{
				Provider:  "anthropic",
				Anthropic: config.AnthropicConfig{Model: "claude-sonnet-4-5"},
			},
			setupEnv: func(t *testing.T) {
				t.Setenv("ANTHROPIC_API_KEY", "")
			},
			expectError: true,
			errorMsg:    "ANTHROPIC_API_KEY",
		},
		{
			name:        "unknown provider",
			cfg:         config.LLMConfig{Provider: "bard"},
			setupEnv:    func(t *testing.T) {},
			expectError: true,
			errorMsg:    "unknown llm provider",
		},
		{
			name:        "empty provider",
			cfg:         config.LLMConfig{Provider: ""},
			setupEnv:    func(t *testing.T) {},
			expectError: true,
			errorMsg:    "not specified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv(t)

			cfg := &config.Config{LLM: tt.cfg}

			provider, err := NewProvider(context.Background(), cfg, testLogger())

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("error should contain %q, got: %v", tt.errorMsg, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if provider == nil {
				t.Fatal("expected provider but got nil")
			}
		})
	}
}

func TestResolveAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		configKey  string
		envVarName string
		envVarVal  string
		expected   string
	}{
		{
			name:       "config key takes precedence",
			configKey:  "from-config",
			envVarName: "AURA_TEST_KEY",
			envVarVal:  "from-env",
			expected:   "from-config",
		},
		{
			name:       "fallback to env var",
			envVarName: "AURA_TEST_KEY",
			envVarVal:  "from-env",
			expected:   "from-env",
		},
		{
			name:       "empty when neither set",
			envVarName: "AURA_TEST_KEY",
			expected:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVarName, tt.envVarVal)

			if result := resolveAPIKey(tt.configKey, tt.envVarName); result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

// TestNewProviderNilConfig verifies that nil config is rejected.
func TestNewProviderNilConfig(t *testing.T) {
	if _, err := NewProvider(context.Background(), nil, testLogger()); err == nil {
		t.Error("NewProvider() should reject nil config")
	}
}

// TestNewProviderNilLogger verifies that nil logger is rejected.
func TestNewProviderNilLogger(t *testing.T) {
	cfg := &config.Config{LLM: config.LLMConfig{Provider: "ollama"}}
	if _, err := NewProvider(context.Background(), cfg, nil); err == nil {
		t.Error("NewProvider() should reject nil logger")
	}
}

func TestSplitSystem(t *testing.T) {
	system, turns := SplitSystem([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleSystem, Content: "b"},
		{Role: RoleAssistant, Content: "hello"},
	})

	if system != "a\n\nb" {
		t.Errorf("system = %q", system)
	}
	if len(turns) != 2 || turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Errorf("turns = %+v", turns)
	}
}

// fakeModel records the last call to GenerateContent.
type fakeModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	chunks   []string
	err      error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	f.opts = llms.CallOptions{}
	for _, opt := range options {
		opt(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	var full strings.Builder
	for _, c := range f.chunks {
		if f.opts.StreamingFunc != nil {
			if err := f.opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
		full.WriteString(c)
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        full.String(),
		GenerationInfo: map[string]any{"PromptTokens": 4, "TotalTokens": 10},
	}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangchainAdapterChat(t *testing.T) {
	model := &fakeModel{chunks: []string{`{"summary":`, `"ok"}`}}
	a := &langchainAdapter{model: model, defaultModel: "gpt-4o", providerType: "openai", jsonMode: true, logger: testLogger()}

	s := schema.Object("", map[string]*schema.Schema{"summary": schema.String("overview")})
	resp, err := a.Chat(context.Background(), []Message{{Role: RoleUser, Content: "go"}}, &ChatOptions{
		Temperature:    0.5,
		ResponseSchema: s,
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if resp.Content != `{"summary":"ok"}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Model != "gpt-4o" || resp.TokensPrompt != 4 || resp.TokensTotal != 10 {
		t.Errorf("unexpected response metadata: %+v", resp)
	}
	if model.opts.Model != "gpt-4o" {
		t.Errorf("model option = %q", model.opts.Model)
	}
	if !model.opts.JSONMode {
		t.Error("JSON mode should be enabled when a schema is requested")
	}
	if len(model.messages) != 2 || model.messages[0].Role != llms.ChatMessageTypeSystem {
		t.Fatalf("expected schema hint as leading system message, got %d messages", len(model.messages))
	}
}

func TestLangchainAdapterStream(t *testing.T) {
	model := &fakeModel{chunks: []string{"Hello", ", ", "there"}}
	a := &langchainAdapter{model: model, defaultModel: "claude", providerType: "anthropic", logger: testLogger()}

	stream, err := a.ChatStream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}

	var sb strings.Builder
	var done int
	for ev := range stream {
		if ev.Error != nil {
			t.Fatalf("stream error: %v", ev.Error)
		}
		sb.WriteString(ev.Content)
		if ev.Done {
			done++
		}
	}
	if sb.String() != "Hello, there" || done != 1 {
		t.Errorf("stream = %q, done events = %d", sb.String(), done)
	}
}

func TestLangchainAdapterErrors(t *testing.T) {
	a := &langchainAdapter{model: &fakeModel{err: errors.New("503")}, logger: testLogger()}
	_, err := a.Chat(context.Background(), []Message{{Role: RoleUser, Content: "x"}}, nil)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}

	a.model = &fakeModel{err: context.Canceled}
	_, err = a.Chat(context.Background(), []Message{{Role: RoleUser, Content: "x"}}, nil)
	if !errors.Is(err, ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", err)
	}
}

func TestToOllamaOptionsFormat(t *testing.T) {
	if toOllamaOptions(nil) != nil {
		t.Error("nil options should stay nil")
	}

	s := schema.Object("", map[string]*schema.Schema{"summary": schema.String("")})
	o := toOllamaOptions(&ChatOptions{Model: "m", Temperature: 0.6, ResponseSchema: s})
	if o.Model != "m" || o.Temperature != 0.6 {
		t.Errorf("unexpected options: %+v", o)
	}
	if !strings.Contains(string(o.Format), `"summary"`) {
		t.Errorf("format should carry the schema, got %s", o.Format)
	}
}
