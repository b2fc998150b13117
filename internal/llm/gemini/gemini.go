// Package gemini provides a Google Gemini implementation of the llm.Provider
// interface on top of the genai SDK.
//
// Like the ollama package, it defines its own request and response types;
// the parent llm package adapts them.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/bimmerbailey/aura/internal/schema"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// Provider implements the LLM provider interface for Gemini.
type Provider struct {
	client *genai.Client
	config Config
	logger *slog.Logger
}

// Config holds Gemini-specific configuration.
type Config struct {
	// APIKey selects the Gemini API backend.
	APIKey string

	// Project and Location select the Vertex AI backend instead.
	Project  string
	Location string

	Model string

	// BaseURL overrides the service endpoint. Used by tests.
	BaseURL string
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

	// ResponseSchema requests JSON output of the given shape.
	ResponseSchema *schema.Schema
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

var (
	ErrProviderUnavailable = errors.New("llm provider is not reachable")
	ErrContextCanceled     = errors.New("operation was canceled")
	ErrMissingCredentials  = errors.New("gemini credentials not configured")
)

// New creates a Gemini provider. A project selects Vertex AI; otherwise an
// API key is required.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	cc := &genai.ClientConfig{}
	switch {
	case cfg.Project != "":
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	case cfg.APIKey != "":
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	default:
		return nil, fmt.Errorf("%w: set GEMINI_API_KEY or llm.gemini.api_key, or llm.gemini.project for Vertex AI", ErrMissingCredentials)
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
		cc.HTTPClient = http.DefaultClient
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		logger.Error("failed to create gemini client", "error", err)
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	logger.Debug("created gemini client", "model", cfg.Model, "vertex", cfg.Project != "")
	return &Provider{client: client, config: cfg, logger: logger}, nil
}

// Chat sends messages to Gemini and returns a complete response.
func (p *Provider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	model, contents, gcfg := p.request(messages, opts)
	p.logger.Debug("sending chat request", "model", model, "messages", len(contents), "structured", gcfg.ResponseSchema != nil)

	res, err := p.client.Models.GenerateContent(ctx, model, contents, gcfg)
	if err != nil {
		p.logger.Error("chat request failed", "error", err, "model", model)
		return nil, wrapError(err)
	}

	resp := &Response{Content: res.Text(), Model: model}
	if res.ModelVersion != "" {
		resp.Model = res.ModelVersion
	}
	if u := res.UsageMetadata; u != nil {
		resp.TokensPrompt = int(u.PromptTokenCount)
		resp.TokensTotal = int(u.TotalTokenCount)
	}
	p.logger.Debug("chat request completed", "model", resp.Model, "prompt_tokens", resp.TokensPrompt, "total_tokens", resp.TokensTotal)
	return resp, nil
}

// ChatStream sends messages to Gemini and returns a channel of streaming events.
func (p *Provider) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	model, contents, gcfg := p.request(messages, opts)
	p.logger.Debug("starting chat stream", "model", model, "messages", len(contents))

	eventChan := make(chan StreamEvent, 10)

	go func() {
		defer close(eventChan)

		for res, err := range p.client.Models.GenerateContentStream(ctx, model, contents, gcfg) {
			if err != nil {
				p.logger.Error("chat stream failed", "error", err, "model", model)
				eventChan <- StreamEvent{Error: wrapError(err), Done: true}
				return
			}
			text := res.Text()
			if text == "" {
				continue
			}
			select {
			case eventChan <- StreamEvent{Content: text}:
			case <-ctx.Done():
				eventChan <- StreamEvent{Error: fmt.Errorf("%w: %v", ErrContextCanceled, ctx.Err()), Done: true}
				return
			}
		}
		eventChan <- StreamEvent{Done: true}
	}()

	return eventChan, nil
}

// Heartbeat checks that the configured model can be resolved.
func (p *Provider) Heartbeat(ctx context.Context) error {
	if _, err := p.client.Models.Get(ctx, p.config.Model, nil); err != nil {
		p.logger.Error("gemini heartbeat failed", "error", err)
		return wrapError(err)
	}
	return nil
}

// ModelAvailable reports whether the service knows the named model.
func (p *Provider) ModelAvailable(ctx context.Context, model string) (bool, error) {
	if _, err := p.client.Models.Get(ctx, model, nil); err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return false, nil
		}
		return false, wrapError(err)
	}
	return true, nil
}

func (p *Provider) request(messages []Message, opts *ChatOptions) (string, []*genai.Content, *genai.GenerateContentConfig) {
	model := p.config.Model
	temperature := float32(0)
	gcfg := &genai.GenerateContentConfig{Temperature: &temperature}

	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		temperature = opts.Temperature
		if opts.MaxTokens > 0 {
			gcfg.MaxOutputTokens = int32(opts.MaxTokens)
		}
		if opts.ResponseSchema != nil {
			gcfg.ResponseMIMEType = "application/json"
			gcfg.ResponseSchema = ConvertSchema(opts.ResponseSchema)
		}
	}

	system, contents := buildContents(messages)
	if system != "" {
		gcfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return model, contents, gcfg
}

// buildContents lifts system messages into a single instruction and maps
// the remaining turns onto Gemini roles.
func buildContents(messages []Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

// ConvertSchema maps a response schema onto the genai representation.
func ConvertSchema(s *schema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(string(s.Type))),
		Description: s.Description,
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = ConvertSchema(prop)
		}
	}
	if s.Items != nil {
		out.Items = ConvertSchema(s.Items)
	}
	return out
}

func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
