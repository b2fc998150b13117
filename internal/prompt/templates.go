package prompt

import (
	"fmt"

	"github.com/bimmerbailey/aura/internal/llm"
	"github.com/bimmerbailey/aura/internal/schema"
)

// Request is a provider-agnostic generation request: the instruction text
// plus the shape the reply must have.
type Request struct {
	Kind        Kind
	Instruction string
	Schema      *schema.Schema
}

// Messages returns the request as a single user turn.
func (r Request) Messages() []llm.Message {
	return []llm.Message{{Role: llm.RoleUser, Content: r.Instruction}}
}

// Build constructs the generation request for kind k. It assumes c was
// already accepted by [Validate] and returns ErrInvalidContext otherwise,
// or when c belongs to a different kind.
//
// User text is embedded verbatim.
func Build(k Kind, c Context) (Request, error) {
	entry, err := Describe(k)
	if err != nil {
		return Request{}, err
	}
	if err := Validate(c); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidContext, err)
	}
	if c.Kind() != k {
		return Request{}, fmt.Errorf("%w: context %T does not match kind %s", ErrInvalidContext, c, k)
	}

	return Request{
		Kind:        k,
		Instruction: instruction(c),
		Schema:      entry.Schema,
	}, nil
}

func instruction(c Context) string {
	switch c := c.(type) {
	case *ROIContext:
		return instruction(*c)
	case *SkillGapsContext:
		return instruction(*c)
	case *DevPlanContext:
		return instruction(*c)
	case ROIContext:
		return "Analyze the following training initiative and forecast its Return on Investment (ROI). " +
			"Provide a detailed breakdown. Initiative: " + c.InitiativeDescription
	case SkillGapsContext:
		return "Identify future skill gaps for the following department/industry based on market trends " +
			"and technological advancements. Department/Industry: " + c.DepartmentDescription
	case DevPlanContext:
		e := c.Employee
		return fmt.Sprintf("Create a personalized development plan for %s, currently a %s in the %s department. "+
			"Their career goal is: \"%s\". The plan should help them reach a senior or related advanced role.",
			e.Name, e.Role, e.Department, c.Goals)
	}
	return ""
}
