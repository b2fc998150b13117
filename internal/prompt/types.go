package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bimmerbailey/aura/internal/company"
)

// Context is the user-supplied input for one analysis. Exactly one
// concrete type exists per [Kind].
type Context interface {
	// Kind reports which analysis the context belongs to.
	Kind() Kind
}

// ROIContext is the input for [KindROIForecast].
type ROIContext struct {
	InitiativeDescription string
}

// SkillGapsContext is the input for [KindSkillGaps].
type SkillGapsContext struct {
	DepartmentDescription string
}

// DevPlanContext is the input for [KindDevPlan]. Employee must be resolved
// from the selected company by the caller.
type DevPlanContext struct {
	Employee *company.Employee
	Goals    string
}

func (ROIContext) Kind() Kind       { return KindROIForecast }
func (SkillGapsContext) Kind() Kind { return KindSkillGaps }
func (DevPlanContext) Kind() Kind   { return KindDevPlan }

// Minimum trimmed lengths; input must be strictly longer.
const (
	MinInitiativeLength = 10
	MinDepartmentLength = 5
	MinGoalsLength      = 10
)

var (
	// ErrValidation is matched by every [*ValidationError].
	ErrValidation = errors.New("prompt: invalid input")

	// ErrInvalidContext is returned by [Build] when the context does not
	// satisfy its kind's rules or does not belong to the requested kind.
	ErrInvalidContext = errors.New("prompt: invalid analysis context")

	// ErrUnknownKind signals a kind outside the catalog.
	ErrUnknownKind = errors.New("prompt: unknown analysis kind")

	// ErrUnknownPurpose signals a refinement purpose outside the known set.
	ErrUnknownPurpose = errors.New("prompt: unknown refinement purpose")
)

// ValidationError describes a form field that fails its rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validate checks c against its kind's minimum-length and selection rules.
// It returns nil or a *ValidationError.
func Validate(c Context) error {
	switch c := c.(type) {
	case ROIContext:
		return minLength("initiative description", c.InitiativeDescription, MinInitiativeLength)
	case *ROIContext:
		if c == nil {
			return errMissingContext()
		}
		return Validate(*c)
	case SkillGapsContext:
		return minLength("department description", c.DepartmentDescription, MinDepartmentLength)
	case *SkillGapsContext:
		if c == nil {
			return errMissingContext()
		}
		return Validate(*c)
	case DevPlanContext:
		if c.Employee == nil {
			return &ValidationError{Field: "employee", Reason: "must be selected"}
		}
		return minLength("goals", c.Goals, MinGoalsLength)
	case *DevPlanContext:
		if c == nil {
			return errMissingContext()
		}
		return Validate(*c)
	case nil:
		return errMissingContext()
	default:
		return &ValidationError{Field: "context", Reason: fmt.Sprintf("has unsupported type %T", c)}
	}
}

func errMissingContext() error {
	return &ValidationError{Field: "context", Reason: "is missing"}
}

func minLength(field, value string, min int) error {
	if n := len([]rune(strings.TrimSpace(value))); n <= min {
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("must be longer than %d characters (got %d)", min, n),
		}
	}
	return nil
}
