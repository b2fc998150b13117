package prompt

import (
	"fmt"
	"strings"

	"github.com/bimmerbailey/aura/internal/schema"
)

// Kind identifies one of the canned analyses Aura can generate.
type Kind string

const (
	// KindROIForecast forecasts the return on a training initiative.
	KindROIForecast Kind = "roi_forecast"

	// KindSkillGaps identifies emerging and declining skills for a
	// department or industry.
	KindSkillGaps Kind = "skill_gaps"

	// KindDevPlan builds a personalized development plan for one employee.
	KindDevPlan Kind = "dev_plan"
)

// Entry is the catalog record for one kind.
type Entry struct {
	Kind        Kind
	Title       string
	Description string
	Schema      *schema.Schema
}

var catalog = map[Kind]Entry{
	KindROIForecast: {
		Kind:        KindROIForecast,
		Title:       "Forecast Training ROI",
		Description: "Forecast the return on investment of a training initiative.",
		Schema:      roiSchema,
	},
	KindSkillGaps: {
		Kind:        KindSkillGaps,
		Title:       "Identify Future Skill Gaps",
		Description: "Identify skills rising and declining in a department or industry.",
		Schema:      skillGapsSchema,
	},
	KindDevPlan: {
		Kind:        KindDevPlan,
		Title:       "Personalized Development Plan",
		Description: "Create a step-by-step development plan for an employee.",
		Schema:      devPlanSchema,
	},
}

var aliases = map[string]Kind{
	"roi":    KindROIForecast,
	"skills": KindSkillGaps,
	"plan":   KindDevPlan,
}

// Kinds returns every kind in display order.
func Kinds() []Kind {
	return []Kind{KindROIForecast, KindSkillGaps, KindDevPlan}
}

// Describe returns the catalog entry for k.
func Describe(k Kind) (Entry, error) {
	e, ok := catalog[k]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
	return e, nil
}

// Title returns the display title of k, or the raw identifier for an
// unknown kind.
func (k Kind) Title() string {
	if e, ok := catalog[k]; ok {
		return e.Title
	}
	return string(k)
}

// ParseKind accepts a kind identifier or one of the short aliases
// "roi", "skills" and "plan". Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if k, ok := aliases[name]; ok {
		return k, nil
	}
	if _, ok := catalog[Kind(name)]; ok {
		return Kind(name), nil
	}
	return "", fmt.Errorf("%w: %q (want roi, skills or plan)", ErrUnknownKind, s)
}

var roiSchema = schema.Object("", map[string]*schema.Schema{
	"predictedRoiPercentage": schema.Number("Predicted Return on Investment as a percentage, e.g., 150.5"),
	"summary":                schema.String("A concise summary of the forecast and its rationale."),
	"quarterlyImpact": schema.ArrayOf("Projected performance uplift over the next four quarters.",
		schema.Object("", map[string]*schema.Schema{
			"quarter":          schema.String("The quarter, e.g., 'Q3 2024'"),
			"upliftPercentage": schema.Number("The percentage uplift in relevant KPIs."),
		})),
	"keyFactors": schema.ArrayOf("Key factors influencing this ROI prediction.", schema.String("")),
})

var skillGapsSchema = schema.Object("", map[string]*schema.Schema{
	"analysisSummary": schema.String("A brief summary of the skill gap analysis."),
	"futureSkills": schema.ArrayOf("A list of skills that will be in high demand.",
		schema.Object("", map[string]*schema.Schema{
			"skill":      schema.String("The name of the future-proof skill."),
			"importance": schema.Number("Importance rating from 1 (low) to 10 (high)."),
		})),
	"decliningSkills": schema.ArrayOf("A list of skills with declining relevance.",
		schema.Object("", map[string]*schema.Schema{
			"skill":      schema.String("The name of the declining skill."),
			"importance": schema.Number("Importance rating from 1 (high relevance) to 10 (low relevance)."),
		})),
})

var devPlanSchema = schema.Object("", map[string]*schema.Schema{
	"employeeName": schema.String(""),
	"currentRole":  schema.String(""),
	"targetRole":   schema.String(""),
	"summary":      schema.String("A summary of the development plan's goals."),
	"developmentSteps": schema.ArrayOf("Actionable steps for the employee's development.",
		schema.Object("", map[string]*schema.Schema{
			"step":      schema.Number("Sequential step number."),
			"action":    schema.String("Specific action or training to undertake."),
			"resources": schema.String("Suggested resources (e.g., courses, books, mentors)."),
			"timeline":  schema.String("Estimated timeline for completion (e.g., '2 weeks')."),
		})),
})
