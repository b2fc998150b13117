// Package ollama provides an Ollama implementation of the llm.Provider interface.
//
// Note: To avoid import cycles, this package defines its own types that match
// the llm.Provider interface. The parent llm package adapts them.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// Provider implements the LLM provider interface for Ollama.
type Provider struct {
	client *api.Client
	config Config
	logger *slog.Logger
}

// Config holds Ollama-specific configuration.
type Config struct {
	// Host is the Ollama API endpoint (e.g., "http://localhost:11434")
	Host string

	// Model is the default model to use (e.g., "llama3.2")
	Model string

	// NumCtx overrides the context window size when positive
	NumCtx int

	// KeepAlive controls how long the model stays loaded after a request.
	// Zero leaves the server default.
	KeepAlive time.Duration
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string
	Content string
}

// ChatOptions configures chat behavior.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int

	// Format is a JSON schema the reply must follow; nil means free text.
	Format json.RawMessage
}

// Response represents a complete LLM response.
type Response struct {
	Content      string
	Model        string
	TokensPrompt int
	TokensTotal  int
}

// StreamEvent represents a single event in a streaming response.
type StreamEvent struct {
	Content string
	Done    bool
	Error   error
}

// Common errors
var (
	ErrProviderUnavailable = errors.New("llm provider is not reachable")
	ErrContextCanceled     = errors.New("operation was canceled")
)

// New creates a new Ollama provider.
// If cfg.Host is empty, it uses the OLLAMA_HOST environment variable or defaults to http://localhost:11434.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	client, err := api.ClientFromEnvironment()
	if err != nil {
		logger.Error("failed to create ollama client from environment", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if cfg.Host != "" {
		parsedURL, err := url.Parse(cfg.Host)
		if err != nil {
			logger.Error("invalid ollama host URL", "host", cfg.Host, "error", err)
			return nil, fmt.Errorf("invalid ollama host: %w", err)
		}

		client = api.NewClient(parsedURL, http.DefaultClient)
		logger.Debug("created ollama client with explicit host", "host", cfg.Host)
	} else {
		logger.Debug("created ollama client from environment")
	}

	if cfg.Model == "" {
		cfg.Model = "llama3.2"
		logger.Debug("using default model", "model", cfg.Model)
	}

	return &Provider{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// Chat sends messages to Ollama and returns a complete response.
func (p *Provider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	req := p.request(messages, opts, false)
	p.logger.Debug("sending chat request", "model", req.Model, "messages", len(messages), "structured", len(req.Format) > 0)

	var response api.ChatResponse
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		p.logger.Error("chat request failed", "error", err, "model", req.Model)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrContextCanceled, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	p.logger.Debug("chat request completed",
		"model", response.Model,
		"prompt_tokens", response.PromptEvalCount,
		"total_tokens", response.EvalCount)

	return &Response{
		Content:      response.Message.Content,
		Model:        response.Model,
		TokensPrompt: response.PromptEvalCount,
		TokensTotal:  response.PromptEvalCount + response.EvalCount,
	}, nil
}

// ChatStream sends messages to Ollama and returns a channel of streaming events.
func (p *Provider) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	req := p.request(messages, opts, true)
	p.logger.Debug("starting chat stream", "model", req.Model, "messages", len(messages))

	eventChan := make(chan StreamEvent, 10)

	go func() {
		defer close(eventChan)

		err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				select {
				case eventChan <- StreamEvent{Content: resp.Message.Content}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if resp.Done {
				p.logger.Debug("chat stream completed",
					"model", resp.Model,
					"prompt_tokens", resp.PromptEvalCount,
					"total_tokens", resp.EvalCount)
			}
			return nil
		})

		switch {
		case err == nil:
			eventChan <- StreamEvent{Done: true}
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			p.logger.Debug("chat stream canceled by context")
			eventChan <- StreamEvent{Error: fmt.Errorf("%w: %v", ErrContextCanceled, err), Done: true}
		default:
			p.logger.Error("chat stream failed", "error", err, "model", req.Model)
			eventChan <- StreamEvent{Error: fmt.Errorf("%w: %v", ErrProviderUnavailable, err), Done: true}
		}
	}()

	return eventChan, nil
}

func (p *Provider) request(messages []Message, opts *ChatOptions, stream bool) *api.ChatRequest {
	model := p.config.Model
	temperature := float32(0)
	var maxTokens int
	var format json.RawMessage
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		temperature = opts.Temperature
		maxTokens = opts.MaxTokens
		format = opts.Format
	}

	ollamaMessages := make([]api.Message, len(messages))
	for i, msg := range messages {
		ollamaMessages[i] = api.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := &api.ChatRequest{
		Model:    model,
		Messages: ollamaMessages,
		Format:   format,
		Options: map[string]interface{}{
			"temperature": temperature,
		},
		Stream: &stream,
	}
	if maxTokens > 0 {
		req.Options["num_predict"] = maxTokens
	}
	if p.config.NumCtx > 0 {
		req.Options["num_ctx"] = p.config.NumCtx
	}
	if p.config.KeepAlive > 0 {
		req.KeepAlive = &api.Duration{Duration: p.config.KeepAlive}
	}
	return req
}

// Heartbeat checks if the Ollama service is reachable and healthy.
func (p *Provider) Heartbeat(ctx context.Context) error {
	p.logger.Debug("checking ollama heartbeat")

	if err := p.client.Heartbeat(ctx); err != nil {
		p.logger.Error("ollama heartbeat failed", "error", err)
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	p.logger.Debug("ollama heartbeat successful")
	return nil
}

// ModelAvailable checks if a specific model is available (i.e., has been pulled).
func (p *Provider) ModelAvailable(ctx context.Context, model string) (bool, error) {
	p.logger.Debug("checking model availability", "model", model)

	listResp, err := p.client.List(ctx)
	if err != nil {
		p.logger.Error("failed to list models", "error", err)
		return false, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	for _, modelInfo := range listResp.Models {
		if modelInfo.Name == model || modelInfo.Model == model {
			return true, nil
		}
	}

	p.logger.Debug("model not found", "model", model, "available_count", len(listResp.Models))
	return false, nil
}
