package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Purpose selects the refinement prompt for a form field.
type Purpose string

const (
	PurposeROIDescription   Purpose = "ROI_DESCRIPTION"
	PurposeSkillGapsContext Purpose = "SKILL_GAPS_CONTEXT"
	PurposeDevPlanGoals     Purpose = "DEV_PLAN_GOALS"
)

// Purposes returns every refinement purpose.
func Purposes() []Purpose {
	return []Purpose{PurposeROIDescription, PurposeSkillGapsContext, PurposeDevPlanGoals}
}

// PurposeFor returns the refinement purpose of the free-text field of k.
func PurposeFor(k Kind) (Purpose, error) {
	switch k {
	case KindROIForecast:
		return PurposeROIDescription, nil
	case KindSkillGaps:
		return PurposeSkillGapsContext, nil
	case KindDevPlan:
		return PurposeDevPlanGoals, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
}

// ParsePurpose accepts a purpose name in any case, with '-' or '_'
// separators. The analysis kind aliases are accepted too.
func ParsePurpose(s string) (Purpose, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for _, p := range Purposes() {
		if string(p) == name {
			return p, nil
		}
	}
	if k, err := ParseKind(s); err == nil {
		return PurposeFor(k)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPurpose, s)
}

// RefineInstruction returns the prompt that expands text for purpose p.
// The text is quoted verbatim; emptiness is the caller's concern.
func RefineInstruction(p Purpose, text string) (string, error) {
	var tmpl string
	switch p {
	case PurposeROIDescription:
		tmpl = refineROI
	case PurposeSkillGapsContext:
		tmpl = refineSkillGaps
	case PurposeDevPlanGoals:
		tmpl = refineGoals
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPurpose, string(p))
	}
	return tmpl + `"` + text + `"`, nil
}

const refineROI = `You are an expert business analyst. Expand the following brief training initiative description into a detailed, professional paragraph of 3-4 sentences suitable for a detailed ROI analysis. Add plausible specifics like target audience, duration, key learning modules, and methodology. Do not add any preamble like "Here's the refined description:", just return the refined text. Here is the description: `

const refineSkillGaps = `You are a future-of-work strategist. Take the following department or industry name and expand it slightly to provide better context for a skill gap analysis. For example, if the input is 'Marketing', a good output would be 'The digital marketing landscape, focusing on consumer B2C engagement and data analytics'. Do not add any preamble, just return the refined text. Here is the context: `

const refineGoals = `You are a career development coach. Expand the following brief career goal into a more detailed, actionable objective of 2-3 sentences for a personalized development plan. Include aspects like desired leadership skills, technical competencies, and a potential timeline. Do not add any preamble, just return the refined text. Here is the goal: `

// ChatInstruction returns the system instruction that grounds a follow-up
// chat in a generated report. result is encoded as JSON.
func ChatInstruction(k Kind, result any) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encoding report for chat: %w", err)
	}
	return fmt.Sprintf("You are an expert AI analyst named Aura. The user has just generated the following '%s' report. "+
		"Your task is to answer follow-up questions they might have about this specific data. "+
		"Be helpful, concise, and always refer to the report context. Here is the report data: %s",
		k.Title(), data), nil
}

// GreetingRequest is the synthetic first turn of a report chat. It is sent
// to the model but never shown in the transcript.
const GreetingRequest = "Introduce yourself in one or two sentences and offer to answer questions about this report."
