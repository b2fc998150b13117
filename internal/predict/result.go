package predict

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bimmerbailey/aura/internal/prompt"
)

// Result is the validated report for one analysis kind. The concrete type
// is one of *RoiForecastResult, *SkillGapsResult or *DevPlanResult.
type Result interface {
	Kind() prompt.Kind
}

type QuarterlyImpact struct {
	Quarter          string  `json:"quarter" yaml:"quarter"`
	UpliftPercentage float64 `json:"upliftPercentage" yaml:"uplift_percentage"`
}

type RoiForecastResult struct {
	PredictedRoiPercentage float64           `json:"predictedRoiPercentage" yaml:"predicted_roi_percentage"`
	Summary                string            `json:"summary" yaml:"summary"`
	QuarterlyImpact        []QuarterlyImpact `json:"quarterlyImpact" yaml:"quarterly_impact"`
	KeyFactors             []string          `json:"keyFactors" yaml:"key_factors"`
}

// Skill is rated 1 to 10.
type Skill struct {
	Skill      string  `json:"skill" yaml:"skill"`
	Importance float64 `json:"importance" yaml:"importance"`
}

type SkillGapsResult struct {
	AnalysisSummary string  `json:"analysisSummary" yaml:"analysis_summary"`
	FutureSkills    []Skill `json:"futureSkills" yaml:"future_skills"`
	DecliningSkills []Skill `json:"decliningSkills" yaml:"declining_skills"`
}

type DevelopmentStep struct {
	Step      float64 `json:"step" yaml:"step"`
	Action    string  `json:"action" yaml:"action"`
	Resources string  `json:"resources" yaml:"resources"`
	Timeline  string  `json:"timeline" yaml:"timeline"`
}

type DevPlanResult struct {
	EmployeeName     string            `json:"employeeName" yaml:"employee_name"`
	CurrentRole      string            `json:"currentRole" yaml:"current_role"`
	TargetRole       string            `json:"targetRole" yaml:"target_role"`
	Summary          string            `json:"summary" yaml:"summary"`
	DevelopmentSteps []DevelopmentStep `json:"developmentSteps" yaml:"development_steps"`
}

func (*RoiForecastResult) Kind() prompt.Kind { return prompt.KindROIForecast }
func (*SkillGapsResult) Kind() prompt.Kind   { return prompt.KindSkillGaps }
func (*DevPlanResult) Kind() prompt.Kind     { return prompt.KindDevPlan }

// SortedSteps returns the steps ordered by step number.
func (r *DevPlanResult) SortedSteps() []DevelopmentStep {
	steps := append([]DevelopmentStep(nil), r.DevelopmentSteps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Step < steps[j].Step })
	return steps
}

// newResult returns an empty result for k.
func newResult(k prompt.Kind) (Result, error) {
	switch k {
	case prompt.KindROIForecast:
		return &RoiForecastResult{}, nil
	case prompt.KindSkillGaps:
		return &SkillGapsResult{}, nil
	case prompt.KindDevPlan:
		return &DevPlanResult{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", prompt.ErrUnknownKind, string(k))
	}
}

// DecodeResult decodes a stored report of kind k. The data is checked
// against the kind's schema first.
func DecodeResult(k prompt.Kind, data []byte) (Result, error) {
	entry, err := prompt.Describe(k)
	if err != nil {
		return nil, err
	}
	if err := entry.Schema.Validate(data); err != nil {
		return nil, err
	}
	r, err := newResult(k)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}
