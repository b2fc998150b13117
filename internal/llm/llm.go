package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bimmerbailey/aura/internal/config"
	"github.com/bimmerbailey/aura/internal/schema"
)

// Provider defines the interface for LLM interactions.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Chat sends messages and returns a complete response.
	// The context can be used to cancel the request.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)

	// ChatStream sends messages and returns a channel of streaming events.
	// The channel will be closed when the stream completes or encounters an error.
	// The context can be used to cancel the stream.
	ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error)

	// Heartbeat checks if the provider is reachable and healthy.
	Heartbeat(ctx context.Context) error

	// ModelAvailable checks if a specific model is available for use.
	ModelAvailable(ctx context.Context, model string) (bool, error)
}

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	// Role identifies the message sender: "system", "user", or "assistant"
	Role string

	// Content is the message text
	Content string
}

// ChatOptions configures chat behavior.
// All fields are optional; nil opts uses provider defaults.
type ChatOptions struct {
	// Model specifies which model to use (e.g., "gemini-2.5-flash", "llama3.2")
	Model string

	// Temperature controls randomness (0.0 = deterministic, 2.0 = very random)
	Temperature float32

	// MaxTokens limits the response length (0 = unlimited/provider default)
	MaxTokens int

	// ResponseSchema, when set, asks the provider to emit a single JSON
	// document of this shape. Providers without native schema support fall
	// back to JSON mode plus a textual description of the shape.
	ResponseSchema *schema.Schema
}

// Response represents a complete LLM response.
type Response struct {
	// Content is the generated text
	Content string

	// Model is the name of the model that generated the response
	Model string

	// TokensPrompt is the number of tokens in the prompt
	TokensPrompt int

	// TokensTotal is the total number of tokens (prompt + completion)
	TokensTotal int
}

// StreamEvent represents a single event in a streaming response.
type StreamEvent struct {
	// Content is the incremental text chunk (token or group of tokens)
	Content string

	// Done indicates if this is the final event in the stream
	Done bool

	// Error contains any error that occurred during streaming
	// When Error is non-nil, the stream should be considered terminated
	Error error
}

// Common errors returned by LLM providers.
var (
	// ErrProviderUnavailable indicates the LLM provider is not reachable
	ErrProviderUnavailable = errors.New("llm provider is not reachable")

	// ErrModelNotFound indicates the requested model is not available
	ErrModelNotFound = errors.New("requested model is not available")

	// ErrInvalidResponse indicates the provider returned an invalid response
	ErrInvalidResponse = errors.New("provider returned invalid response")

	// ErrStreamClosed indicates the stream was closed unexpectedly
	ErrStreamClosed = errors.New("stream was closed unexpectedly")

	// ErrContextCanceled indicates the operation was canceled via context
	ErrContextCanceled = errors.New("operation was canceled")
)

// NewProvider creates an LLM provider based on the configuration.
// The logger is used for debug and error messages.
// Returns an error if the provider type is unknown or initialization fails.
func NewProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	providerType := strings.ToLower(cfg.LLM.Provider)
	logger.Debug("creating llm provider", "type", providerType)

	switch providerType {
	case "gemini":
		return newGeminiProvider(ctx, cfg, logger)
	case "ollama":
		return newOllamaProvider(cfg, logger)
	case "openai":
		return newOpenAIProvider(cfg, logger)
	case "anthropic":
		return newAnthropicProvider(cfg, logger)
	case "":
		return nil, errors.New("llm provider not specified in configuration")
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: %s)", providerType, strings.Join(config.Providers, ", "))
	}
}

// SplitSystem separates system messages from the conversation turns.
// Several providers take the system instruction as a dedicated field.
func SplitSystem(messages []Message) (system string, turns []Message) {
	var parts []string
	for _, m := range messages {
		if m.Role == RoleSystem {
			parts = append(parts, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return strings.Join(parts, "\n\n"), turns
}
