package predict

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimmerbailey/aura/internal/company"
	"github.com/bimmerbailey/aura/internal/llm"
	"github.com/bimmerbailey/aura/internal/llm/llmtest"
	"github.com/bimmerbailey/aura/internal/prompt"
	"github.com/bimmerbailey/aura/internal/redact"
)

const roiReply = `{
  "predictedRoiPercentage": 35,
  "summary": "Strong uplift expected.",
  "quarterlyImpact": [
    {"quarter": "Q1", "upliftPercentage": 5},
    {"quarter": "Q2", "upliftPercentage": 10},
    {"quarter": "Q3", "upliftPercentage": 15},
    {"quarter": "Q4", "upliftPercentage": 20}
  ],
  "keyFactors": ["a", "b", "c"]
}`

const devPlanReply = `{
  "employeeName": "Alice Johnson",
  "currentRole": "Software Engineer II",
  "targetRole": "Engineering Lead",
  "summary": "Grow into leadership.",
  "developmentSteps": [
    {"step": 2, "action": "Lead a project", "resources": "Mentor", "timeline": "6 months"},
    {"step": 1, "action": "Take a course", "resources": "Online", "timeline": "3 months"}
  ]
}`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T, p llm.Provider, opts ...Option) *Service {
	t.Helper()
	s, err := NewService(p, discard(), opts...)
	require.NoError(t, err)
	return s
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, discard())
	assert.Error(t, err)

	_, err = NewService(llmtest.New(), nil)
	assert.Error(t, err)

	_, err = NewRefiner(llmtest.New(), nil)
	assert.Error(t, err)
}

func TestGenerateROIForecast(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Content: roiReply})
	s := newService(t, fake)

	out := s.Generate(context.Background(), prompt.KindROIForecast, prompt.ROIContext{
		InitiativeDescription: "Leadership training for 20 managers",
	})
	require.False(t, out.Failed(), out.Message())
	assert.Empty(t, out.Message())

	r, ok := out.Result.(*RoiForecastResult)
	require.True(t, ok, "result type %T", out.Result)
	assert.Equal(t, 35.0, r.PredictedRoiPercentage)
	assert.Len(t, r.QuarterlyImpact, 4)
	assert.Equal(t, []string{"a", "b", "c"}, r.KeyFactors)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Stream)
	assert.Equal(t, GenerateTemperature, calls[0].Options.Temperature)
	require.NotNil(t, calls[0].Options.ResponseSchema)
	require.Len(t, calls[0].Messages, 1)
	assert.Equal(t, llm.RoleUser, calls[0].Messages[0].Role)
	assert.Contains(t, calls[0].Messages[0].Content, "Leadership training for 20 managers")
}

func TestGenerateDevPlan(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Content: devPlanReply})
	s := newService(t, fake)

	alice := &company.Employee{ID: 1, Name: "Alice Johnson", Role: "Software Engineer II", Department: "Engineering"}
	out := s.Generate(context.Background(), prompt.KindDevPlan, prompt.DevPlanContext{
		Employee: alice,
		Goals:    "Become an engineering lead within two years",
	})
	require.False(t, out.Failed(), out.Message())

	plan := out.Result.(*DevPlanResult)
	steps := plan.SortedSteps()
	require.Len(t, steps, 2)
	assert.Equal(t, "Take a course", steps[0].Action)
	assert.Equal(t, "Lead a project", plan.DevelopmentSteps[0].Action, "original order must be kept")
}

func TestGenerateStripsCodeFence(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Content: "```json\n" + roiReply + "\n```"})
	s := newService(t, fake)

	out := s.Generate(context.Background(), prompt.KindROIForecast, prompt.ROIContext{
		InitiativeDescription: "Leadership training for 20 managers",
	})
	assert.False(t, out.Failed(), out.Message())
}

func TestGenerateFailures(t *testing.T) {
	roi := prompt.ROIContext{InitiativeDescription: "Leadership training for 20 managers"}

	tests := []struct {
		name    string
		kind    prompt.Kind
		ctx     prompt.Context
		reply   llmtest.Reply
		wantErr error
		calls   int
	}{
		{
			name:    "invalid context makes no call",
			kind:    prompt.KindSkillGaps,
			ctx:     prompt.SkillGapsContext{DepartmentDescription: "IT"},
			wantErr: prompt.ErrInvalidContext,
		},
		{
			name:    "mismatched context makes no call",
			kind:    prompt.KindDevPlan,
			ctx:     roi,
			wantErr: prompt.ErrInvalidContext,
		},
		{
			name:    "nil pointer context makes no call",
			kind:    prompt.KindROIForecast,
			ctx:     (*prompt.ROIContext)(nil),
			wantErr: prompt.ErrInvalidContext,
		},
		{
			name:    "provider failure",
			kind:    prompt.KindROIForecast,
			ctx:     roi,
			reply:   llmtest.Reply{Err: errors.New("connection reset by peer")},
			wantErr: ErrProvider,
			calls:   1,
		},
		{
			name:    "blank response",
			kind:    prompt.KindROIForecast,
			ctx:     roi,
			reply:   llmtest.Reply{Content: "  \n "},
			wantErr: ErrEmptyResponse,
			calls:   1,
		},
		{
			name:    "not json",
			kind:    prompt.KindROIForecast,
			ctx:     roi,
			reply:   llmtest.Reply{Content: "Sure! Here is your forecast."},
			wantErr: ErrMalformedResponse,
			calls:   1,
		},
		{
			name:    "missing required field",
			kind:    prompt.KindROIForecast,
			ctx:     roi,
			reply:   llmtest.Reply{Content: `{"predictedRoiPercentage": 35, "summary": "x", "quarterlyImpact": []}`},
			wantErr: ErrMalformedResponse,
			calls:   1,
		},
		{
			name:    "wrong field type",
			kind:    prompt.KindROIForecast,
			ctx:     roi,
			reply:   llmtest.Reply{Content: strings.Replace(roiReply, "35", `"35%"`, 1)},
			wantErr: ErrMalformedResponse,
			calls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := llmtest.New(tt.reply)
			s := newService(t, fake)

			out := s.Generate(context.Background(), tt.kind, tt.ctx)
			require.True(t, out.Failed())
			assert.Nil(t, out.Result, "no partial result may be returned")
			assert.ErrorIs(t, out.Err, tt.wantErr)
			assert.True(t, strings.HasPrefix(out.Message(), "An error occurred while generating the prediction: "))
			assert.Len(t, fake.Calls(), tt.calls)
		})
	}
}

func TestGenerateProviderMessageCarriesCause(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Err: errors.New("quota exceeded")})
	s := newService(t, fake)

	out := s.Generate(context.Background(), prompt.KindROIForecast, prompt.ROIContext{
		InitiativeDescription: "Leadership training for 20 managers",
	})
	assert.Contains(t, out.Message(), "quota exceeded")
}

func TestGenerateOptions(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Content: roiReply})
	s := newService(t, fake,
		WithModel("gemini-2.5-pro"),
		WithMaxTokens(2048),
		WithTimeout(time.Minute),
		WithRedactor(redact.New(true, []string{"email"})),
	)

	out := s.Generate(context.Background(), prompt.KindROIForecast, prompt.ROIContext{
		InitiativeDescription: "Coaching program run by coach@example.com for managers",
	})
	require.False(t, out.Failed(), out.Message())

	call := fake.Calls()[0]
	assert.Equal(t, "gemini-2.5-pro", call.Options.Model)
	assert.Equal(t, 2048, call.Options.MaxTokens)
	assert.NotContains(t, call.Messages[0].Content, "coach@example.com")
	assert.Contains(t, call.Messages[0].Content, "[EMAIL:")
}

func TestGenerateNilContextWithRedaction(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Content: roiReply})
	s := newService(t, fake, WithRedactor(redact.New(true, redact.DefaultPatterns())))

	out := s.Generate(context.Background(), prompt.KindDevPlan, (*prompt.DevPlanContext)(nil))
	require.True(t, out.Failed())
	assert.ErrorIs(t, out.Err, prompt.ErrInvalidContext)
	assert.Empty(t, fake.Calls())
}

func TestStripFence(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```{\"a\":1}```":         "```{\"a\":1}```",
		"```json\n{\"a\":1}":      "```json\n{\"a\":1}",
	}
	for in, want := range tests {
		assert.Equal(t, want, stripFence(in), "input %q", in)
	}
}

func TestDecodeResult(t *testing.T) {
	r, err := DecodeResult(prompt.KindROIForecast, []byte(roiReply))
	require.NoError(t, err)
	assert.Equal(t, prompt.KindROIForecast, r.Kind())

	_, err = DecodeResult(prompt.KindSkillGaps, []byte(roiReply))
	assert.Error(t, err)

	_, err = DecodeResult("weather", []byte(roiReply))
	assert.ErrorIs(t, err, prompt.ErrUnknownKind)
}

func TestRefine(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Content: "  A six-week leadership program for new managers.  \n"})
	r, err := NewRefiner(fake, discard())
	require.NoError(t, err)

	out := r.Refine(context.Background(), "leadership training", prompt.PurposeROIDescription)
	require.False(t, out.Failed(), out.Message())
	assert.Equal(t, "A six-week leadership program for new managers.", out.Text)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, RefineTemperature, calls[0].Options.Temperature)
	assert.Nil(t, calls[0].Options.ResponseSchema)
	assert.Contains(t, calls[0].Messages[0].Content, "leadership training")
}

func TestRefineEmptyInput(t *testing.T) {
	fake := llmtest.New()
	r, err := NewRefiner(fake, discard())
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "\n\t"} {
		out := r.Refine(context.Background(), text, prompt.PurposeDevPlanGoals)
		assert.ErrorIs(t, out.Err, ErrEmptyInput)
		assert.Equal(t, "Cannot refine empty text.", out.Message())
	}
	assert.Empty(t, fake.Calls())
}

func TestRefineFailures(t *testing.T) {
	tests := []struct {
		name    string
		reply   llmtest.Reply
		wantErr error
	}{
		{name: "provider", reply: llmtest.Reply{Err: errors.New("timeout")}, wantErr: ErrProvider},
		{name: "blank reply", reply: llmtest.Reply{Content: "   "}, wantErr: ErrEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRefiner(llmtest.New(tt.reply), discard())
			require.NoError(t, err)

			out := r.Refine(context.Background(), "Marketing", prompt.PurposeSkillGapsContext)
			assert.ErrorIs(t, out.Err, tt.wantErr)
			assert.True(t, strings.HasPrefix(out.Message(), "An error occurred during refinement: "))
			assert.Empty(t, out.Text)
		})
	}
}

func TestRefineUnknownPurpose(t *testing.T) {
	fake := llmtest.New()
	r, err := NewRefiner(fake, discard())
	require.NoError(t, err)

	out := r.Refine(context.Background(), "Marketing", "TITLE")
	assert.ErrorIs(t, out.Err, prompt.ErrUnknownPurpose)
	assert.Empty(t, fake.Calls())
}
