// Package predict turns analysis contexts into validated reports and
// polishes free-text form input, using an llm.Provider.
//
// Neither Service.Generate nor Refiner.Refine returns an error value.
// Every failure, including a bad context or a provider fault, comes back
// inside the outcome with a user-facing message, and nothing is retried.
package predict

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bimmerbailey/aura/internal/llm"
	"github.com/bimmerbailey/aura/internal/redact"
)

// Sampling temperatures.
const (
	GenerateTemperature float32 = 0.5
	RefineTemperature   float32 = 0.6
)

var (
	// ErrEmptyResponse means the provider answered with blank text.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrMalformedResponse means the reply is not JSON of the expected shape.
	ErrMalformedResponse = errors.New("model returned a malformed response")

	// ErrProvider wraps transport and provider-side failures.
	ErrProvider = errors.New("model provider failed")

	// ErrEmptyInput is returned by Refine for blank text.
	ErrEmptyInput = errors.New("cannot refine empty text")
)

// Option configures a Service or Refiner.
type Option func(*base)

// WithTimeout bounds each model call. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(b *base) { b.timeout = d }
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(b *base) { b.model = model }
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) Option {
	return func(b *base) { b.maxTokens = n }
}

// WithRedactor masks personal data in user text before it is sent.
func WithRedactor(r *redact.Redactor) Option {
	return func(b *base) { b.redactor = r }
}

type base struct {
	provider  llm.Provider
	logger    *slog.Logger
	timeout   time.Duration
	model     string
	maxTokens int
	redactor  *redact.Redactor
}

func newBase(provider llm.Provider, logger *slog.Logger, opts []Option) (base, error) {
	if provider == nil {
		return base{}, errors.New("provider cannot be nil")
	}
	if logger == nil {
		return base{}, errors.New("logger cannot be nil")
	}
	b := base{provider: provider, logger: logger}
	for _, opt := range opts {
		opt(&b)
	}
	return b, nil
}

func (b *base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout > 0 {
		return context.WithTimeout(ctx, b.timeout)
	}
	return context.WithCancel(ctx)
}

func (b *base) options(temperature float32) *llm.ChatOptions {
	return &llm.ChatOptions{
		Model:       b.model,
		Temperature: temperature,
		MaxTokens:   b.maxTokens,
	}
}
