package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/bimmerbailey/aura/internal/llm/gemini"
	"github.com/bimmerbailey/aura/internal/llm/ollama"
)

// ollamaAdapter bridges ollama.Provider to the Provider interface.
type ollamaAdapter struct {
	provider *ollama.Provider
}

func (a *ollamaAdapter) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	msgs := make([]ollama.Message, len(messages))
	for i, m := range messages {
		msgs[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}

	resp, err := a.provider.Chat(ctx, msgs, toOllamaOptions(opts))
	if err != nil {
		return nil, mapOllamaError(err)
	}
	return &Response{
		Content:      resp.Content,
		Model:        resp.Model,
		TokensPrompt: resp.TokensPrompt,
		TokensTotal:  resp.TokensTotal,
	}, nil
}

func (a *ollamaAdapter) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error) {
	msgs := make([]ollama.Message, len(messages))
	for i, m := range messages {
		msgs[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}

	src, err := a.provider.ChatStream(ctx, msgs, toOllamaOptions(opts))
	if err != nil {
		return nil, mapOllamaError(err)
	}

	out := make(chan StreamEvent, 10)
	go func() {
		defer close(out)
		for ev := range src {
			out <- StreamEvent{Content: ev.Content, Done: ev.Done, Error: mapOllamaError(ev.Error)}
		}
	}()
	return out, nil
}

func (a *ollamaAdapter) Heartbeat(ctx context.Context) error {
	return mapOllamaError(a.provider.Heartbeat(ctx))
}

func (a *ollamaAdapter) ModelAvailable(ctx context.Context, model string) (bool, error) {
	ok, err := a.provider.ModelAvailable(ctx, model)
	return ok, mapOllamaError(err)
}

func toOllamaOptions(opts *ChatOptions) *ollama.ChatOptions {
	if opts == nil {
		return nil
	}
	o := &ollama.ChatOptions{
		Model:       opts.Model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.ResponseSchema != nil {
		o.Format = opts.ResponseSchema.JSON()
	}
	return o
}

func mapOllamaError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ollama.ErrContextCanceled):
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	case errors.Is(err, ollama.ErrProviderUnavailable):
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	default:
		return err
	}
}

// geminiAdapter bridges gemini.Provider to the Provider interface.
type geminiAdapter struct {
	provider *gemini.Provider
}

func (a *geminiAdapter) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	resp, err := a.provider.Chat(ctx, toGeminiMessages(messages), toGeminiOptions(opts))
	if err != nil {
		return nil, mapGeminiError(err)
	}
	return &Response{
		Content:      resp.Content,
		Model:        resp.Model,
		TokensPrompt: resp.TokensPrompt,
		TokensTotal:  resp.TokensTotal,
	}, nil
}

func (a *geminiAdapter) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error) {
	src, err := a.provider.ChatStream(ctx, toGeminiMessages(messages), toGeminiOptions(opts))
	if err != nil {
		return nil, mapGeminiError(err)
	}

	out := make(chan StreamEvent, 10)
	go func() {
		defer close(out)
		for ev := range src {
			out <- StreamEvent{Content: ev.Content, Done: ev.Done, Error: mapGeminiError(ev.Error)}
		}
	}()
	return out, nil
}

func (a *geminiAdapter) Heartbeat(ctx context.Context) error {
	return mapGeminiError(a.provider.Heartbeat(ctx))
}

func (a *geminiAdapter) ModelAvailable(ctx context.Context, model string) (bool, error) {
	ok, err := a.provider.ModelAvailable(ctx, model)
	return ok, mapGeminiError(err)
}

func toGeminiMessages(messages []Message) []gemini.Message {
	msgs := make([]gemini.Message, len(messages))
	for i, m := range messages {
		msgs[i] = gemini.Message{Role: m.Role, Content: m.Content}
	}
	return msgs
}

func toGeminiOptions(opts *ChatOptions) *gemini.ChatOptions {
	if opts == nil {
		return nil
	}
	return &gemini.ChatOptions{
		Model:          opts.Model,
		Temperature:    opts.Temperature,
		MaxTokens:      opts.MaxTokens,
		ResponseSchema: opts.ResponseSchema,
	}
}

func mapGeminiError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gemini.ErrContextCanceled):
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	case errors.Is(err, gemini.ErrProviderUnavailable):
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	default:
		return err
	}
}
