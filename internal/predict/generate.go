package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bimmerbailey/aura/internal/llm"
	"github.com/bimmerbailey/aura/internal/prompt"
)

const generateFailure = "An error occurred while generating the prediction: "

// Outcome is the result of one generation. Exactly one of Result and Err
// is set.
type Outcome struct {
	Kind   prompt.Kind
	Result Result
	Err    error
}

// Failed reports whether the generation failed.
func (o Outcome) Failed() bool { return o.Err != nil }

// Message returns the user-facing failure text, or "" on success.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return generateFailure + o.Err.Error()
}

// Service generates analysis reports. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	base
}

// NewService returns a Service that calls provider.
func NewService(provider llm.Provider, logger *slog.Logger, opts ...Option) (*Service, error) {
	b, err := newBase(provider, logger, opts)
	if err != nil {
		return nil, err
	}
	return &Service{base: b}, nil
}

// Generate builds the request for kind k, makes one non-streaming call with
// the kind's response schema, and validates the reply as a whole.
func (s *Service) Generate(ctx context.Context, k prompt.Kind, c prompt.Context) Outcome {
	start := time.Now()
	logger := s.logger.With("kind", string(k))

	req, err := prompt.Build(k, s.redactContext(c))
	if err != nil {
		logger.Warn("refusing invalid analysis request", "error", err)
		return Outcome{Kind: k, Err: err}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := s.options(GenerateTemperature)
	opts.ResponseSchema = req.Schema

	logger.Info("generating prediction")
	resp, err := s.provider.Chat(ctx, req.Messages(), opts)
	if err != nil {
		logger.Error("prediction request failed", "error", err, "duration", time.Since(start))
		return Outcome{Kind: k, Err: fmt.Errorf("%w: %w", ErrProvider, err)}
	}

	result, err := parse(k, req, resp.Content)
	if err != nil {
		logger.Warn("rejecting prediction response", "error", err, "bytes", len(resp.Content))
		return Outcome{Kind: k, Err: err}
	}

	logger.Debug("prediction completed",
		"model", resp.Model,
		"prompt_tokens", resp.TokensPrompt,
		"total_tokens", resp.TokensTotal,
		"duration", time.Since(start))
	return Outcome{Kind: k, Result: result}
}

// parse applies the all-or-nothing acceptance rules to raw model text.
func parse(k prompt.Kind, req prompt.Request, content string) (Result, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	text = stripFence(text)

	if err := req.Schema.Validate([]byte(text)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	result, err := newResult(k)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(text), result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return result, nil
}

// stripFence removes a surrounding Markdown code fence, which some models
// add even in JSON mode.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		return text
	}
	body = strings.TrimSpace(body)
	if !strings.HasSuffix(body, "```") {
		return text
	}
	return strings.TrimSpace(strings.TrimSuffix(body, "```"))
}

// redactContext masks free text in c. Invalid contexts are returned as
// they are for prompt.Build to reject.
func (s *Service) redactContext(c prompt.Context) prompt.Context {
	if !s.redactor.Enabled() || prompt.Validate(c) != nil {
		return c
	}
	switch v := c.(type) {
	case prompt.ROIContext:
		v.InitiativeDescription = s.redactor.Apply(v.InitiativeDescription)
		return v
	case prompt.SkillGapsContext:
		v.DepartmentDescription = s.redactor.Apply(v.DepartmentDescription)
		return v
	case prompt.DevPlanContext:
		v.Goals = s.redactor.Apply(v.Goals)
		return v
	case *prompt.ROIContext:
		return s.redactContext(*v)
	case *prompt.SkillGapsContext:
		return s.redactContext(*v)
	case *prompt.DevPlanContext:
		return s.redactContext(*v)
	}
	return c
}
