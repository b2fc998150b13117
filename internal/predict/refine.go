package predict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bimmerbailey/aura/internal/llm"
	"github.com/bimmerbailey/aura/internal/prompt"
)

const (
	refineEmpty   = "Cannot refine empty text."
	refineFailure = "An error occurred during refinement: "
)

// RefineOutcome is the result of one refinement. Exactly one of Text and
// Err is set.
type RefineOutcome struct {
	Text string
	Err  error
}

// Failed reports whether refinement failed.
func (o RefineOutcome) Failed() bool { return o.Err != nil }

// Message returns the user-facing failure text, or "" on success.
func (o RefineOutcome) Message() string {
	switch {
	case o.Err == nil:
		return ""
	case errors.Is(o.Err, ErrEmptyInput):
		return refineEmpty
	default:
		return refineFailure + o.Err.Error()
	}
}

// Refiner expands short form input into fuller prose.
type Refiner struct {
	base
}

// NewRefiner returns a Refiner that calls provider.
func NewRefiner(provider llm.Provider, logger *slog.Logger, opts ...Option) (*Refiner, error) {
	b, err := newBase(provider, logger, opts)
	if err != nil {
		return nil, err
	}
	return &Refiner{base: b}, nil
}

// Refine returns a new, trimmed text for purpose p. Blank input is refused
// without calling the provider.
func (r *Refiner) Refine(ctx context.Context, text string, p prompt.Purpose) RefineOutcome {
	if strings.TrimSpace(text) == "" {
		return RefineOutcome{Err: ErrEmptyInput}
	}

	instruction, err := prompt.RefineInstruction(p, r.redactor.Apply(text))
	if err != nil {
		return RefineOutcome{Err: err}
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	r.logger.Info("refining text", "purpose", string(p), "chars", len(text))
	resp, err := r.provider.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: instruction}}, r.options(RefineTemperature))
	if err != nil {
		r.logger.Error("refinement request failed", "purpose", string(p), "error", err)
		return RefineOutcome{Err: fmt.Errorf("%w: %w", ErrProvider, err)}
	}

	refined := strings.TrimSpace(resp.Content)
	if refined == "" {
		return RefineOutcome{Err: ErrEmptyResponse}
	}
	return RefineOutcome{Text: refined}
}
