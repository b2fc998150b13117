package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// langchainAdapter implements the Provider interface using langchaingo.
// This adapter translates between our Provider interface and langchaingo's llms.Model.
type langchainAdapter struct {
	model        llms.Model
	defaultModel string
	providerType string
	// jsonMode enables the backend's native JSON output switch when a
	// response schema is requested.
	jsonMode bool
	logger   *slog.Logger
}

// Chat sends messages and returns a complete response.
func (a *langchainAdapter) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	lcMessages := convertMessages(withSchemaHint(messages, opts))
	lcOpts := a.convertOptions(opts)

	a.logger.Debug("sending chat request", "provider", a.providerType, "messages", len(lcMessages))
	resp, err := a.model.GenerateContent(ctx, lcMessages, lcOpts...)
	if err != nil {
		a.logger.Error("chat request failed", "provider", a.providerType, "error", err)
		return nil, wrapError(err)
	}

	return convertResponse(resp, a.defaultModel), nil
}

// ChatStream sends messages and returns a channel of streaming events.
func (a *langchainAdapter) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	lcMessages := convertMessages(withSchemaHint(messages, opts))
	lcOpts := a.convertOptions(opts)

	eventChan := make(chan StreamEvent, 10)

	go func() {
		defer close(eventChan)

		streamOpts := append(lcOpts, llms.WithStreamingFunc(
			func(ctx context.Context, chunk []byte) error {
				select {
				case eventChan <- StreamEvent{Content: string(chunk)}:
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			},
		))

		_, err := a.model.GenerateContent(ctx, lcMessages, streamOpts...)

		if err != nil {
			a.logger.Error("chat stream failed", "provider", a.providerType, "error", err)
			eventChan <- StreamEvent{Error: wrapError(err), Done: true}
		} else {
			eventChan <- StreamEvent{Done: true}
		}
	}()

	return eventChan, nil
}

// Heartbeat checks if the provider is reachable with a minimal request.
func (a *langchainAdapter) Heartbeat(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := a.Chat(ctx, []Message{
		{Role: RoleUser, Content: "ping"},
	}, &ChatOptions{
		MaxTokens: 1,
	})

	return err
}

// ModelAvailable assumes hosted models exist; a bad name fails at request time.
func (a *langchainAdapter) ModelAvailable(ctx context.Context, model string) (bool, error) {
	return true, nil
}

// --- Conversion Helpers ---

// withSchemaHint prepends a system message describing the required JSON
// shape. These backends cannot take a schema directly.
func withSchemaHint(messages []Message, opts *ChatOptions) []Message {
	if opts == nil || opts.ResponseSchema == nil {
		return messages
	}
	hint := Message{
		Role: RoleSystem,
		Content: "Respond with a single JSON document and nothing else. " +
			"Every field is required. The document must have this shape:\n" +
			opts.ResponseSchema.Describe(),
	}
	return append([]Message{hint}, messages...)
}

func convertMessages(messages []Message) []llms.MessageContent {
	result := make([]llms.MessageContent, len(messages))
	for i, msg := range messages {
		result[i] = llms.TextParts(convertRole(msg.Role), msg.Content)
	}
	return result
}

func convertRole(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleUser:
		return llms.ChatMessageTypeHuman
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeGeneric
	}
}

func (a *langchainAdapter) convertOptions(opts *ChatOptions) []llms.CallOption {
	result := []llms.CallOption{}

	if opts != nil && opts.Model != "" {
		result = append(result, llms.WithModel(opts.Model))
	} else {
		result = append(result, llms.WithModel(a.defaultModel))
	}

	if opts == nil {
		return result
	}

	result = append(result, llms.WithTemperature(float64(opts.Temperature)))
	if opts.MaxTokens > 0 {
		result = append(result, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.ResponseSchema != nil && a.jsonMode {
		result = append(result, llms.WithJSONMode())
	}

	return result
}

func convertResponse(lcResp *llms.ContentResponse, defaultModel string) *Response {
	if lcResp == nil || len(lcResp.Choices) == 0 {
		return &Response{Model: defaultModel}
	}

	choice := lcResp.Choices[0]

	return &Response{
		Content:      choice.Content,
		Model:        getStringFromInfo(choice.GenerationInfo, "Model", defaultModel),
		TokensPrompt: getIntFromInfo(choice.GenerationInfo, "PromptTokens"),
		TokensTotal:  getIntFromInfo(choice.GenerationInfo, "TotalTokens"),
	}
}

func getIntFromInfo(info map[string]any, key string) int {
	if v, ok := info[key].(int); ok {
		return v
	}
	if v, ok := info[key].(float64); ok {
		return int(v)
	}
	return 0
}

func getStringFromInfo(info map[string]any, key string, defaultVal string) string {
	if v, ok := info[key].(string); ok {
		return v
	}
	return defaultVal
}

// wrapError converts langchaingo errors to our error types.
func wrapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	default:
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
}
