package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bimmerbailey/aura/internal/company"
	"github.com/bimmerbailey/aura/internal/prompt"
	"github.com/bimmerbailey/aura/internal/report"
)

var generateCmd = &cobra.Command{
	Use:   "generate <roi|skills|plan>",
	Short: "Generate an analysis report",
	Long: `Generate one of the three analysis reports for the selected company.

  roi     Forecast Training ROI            (--initiative)
  skills  Identify Future Skill Gaps       (--department)
  plan    Personalized Development Plan    (--employee, --goals)

Input is checked before anything is sent to the model. With --refine the
free-text input is first expanded by the model, and with --chat an
interactive follow-up conversation starts once the report is shown.

Examples:
  aura generate roi --initiative "Six-week leadership course for new managers"
  aura generate skills --department "Retail banking" --format table
  aura generate plan --employee 1 --goals "Lead the platform team within two years" --chat`,
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"gen"},
	RunE:    withApp(runGenerate),
}

func init() {
	generateCmd.Flags().String("initiative", "", "training initiative to forecast (roi)")
	generateCmd.Flags().String("department", "", "department or industry to analyze (skills)")
	generateCmd.Flags().StringP("employee", "e", "", "employee id or name (plan)")
	generateCmd.Flags().String("goals", "", "career goals of the employee (plan)")
	generateCmd.Flags().StringP("company", "c", "", "company id or name (default is the selected company)")
	generateCmd.Flags().Bool("refine", false, "expand the free-text input with AI before generating")
	generateCmd.Flags().Bool("chat", false, "start a follow-up chat about the report")
	generateCmd.Flags().Bool("save", true, "save the report to the history")

	rootCmd.AddCommand(generateCmd)
}

type generateOptions struct {
	kind       prompt.Kind
	company    string
	initiative string
	department string
	employee   string
	goals      string
	refine     bool
	chat       bool
	save       bool
}

func runGenerate(cmd *cobra.Command, a *app, args []string) error {
	kind, err := prompt.ParseKind(args[0])
	if err != nil {
		return err
	}

	opts := generateOptions{kind: kind}
	opts.company, _ = cmd.Flags().GetString("company")
	opts.initiative, _ = cmd.Flags().GetString("initiative")
	opts.department, _ = cmd.Flags().GetString("department")
	opts.employee, _ = cmd.Flags().GetString("employee")
	opts.goals, _ = cmd.Flags().GetString("goals")
	opts.refine, _ = cmd.Flags().GetBool("refine")
	opts.chat, _ = cmd.Flags().GetBool("chat")
	opts.save, _ = cmd.Flags().GetBool("save")

	return a.generate(cmd.Context(), opts)
}

func (a *app) generate(ctx context.Context, opts generateOptions) error {
	target, err := a.company(ctx, opts.company)
	if err != nil {
		return err
	}

	c, err := buildContext(target, opts)
	if err != nil {
		return err
	}
	if opts.refine {
		if c, err = a.refineContext(ctx, c); err != nil {
			return err
		}
	}
	if err := prompt.Validate(c); err != nil {
		return err
	}

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	a.out.Notef("Generating %q for %s...", opts.kind.Title(), target.Name)
	outcome := svc.Generate(ctx, opts.kind, c)
	if outcome.Failed() {
		return errors.New(outcome.Message())
	}
	if err := a.out.WriteResult(outcome.Result); err != nil {
		return err
	}

	var saved *report.Report
	if opts.save {
		r, err := a.reports.Save(ctx, reportTitle(c), target.Name, outcome.Result)
		if err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		a.out.Notef("Saved as report %s", r.ShortID())
		saved = &r
	}

	if opts.chat {
		return a.chatAbout(ctx, outcome.Result, saved)
	}
	return nil
}

// buildContext assembles the analysis input for opts.kind. The employee of
// a development plan is resolved within target.
func buildContext(target company.Company, opts generateOptions) (prompt.Context, error) {
	switch opts.kind {
	case prompt.KindROIForecast:
		return prompt.ROIContext{InitiativeDescription: opts.initiative}, nil
	case prompt.KindSkillGaps:
		return prompt.SkillGapsContext{DepartmentDescription: opts.department}, nil
	case prompt.KindDevPlan:
		c := prompt.DevPlanContext{Goals: opts.goals}
		if opts.employee != "" {
			e, ok := target.FindEmployee(opts.employee)
			if !ok {
				return nil, fmt.Errorf("%w: %q in %s", company.ErrEmployeeNotFound, opts.employee, target.Name)
			}
			employee := *e
			c.Employee = &employee
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", prompt.ErrUnknownKind, string(opts.kind))
	}
}

// refineContext replaces the free-text field of c with its refined form.
func (a *app) refineContext(ctx context.Context, c prompt.Context) (prompt.Context, error) {
	purpose, err := prompt.PurposeFor(c.Kind())
	if err != nil {
		return nil, err
	}
	refiner, err := a.refiner(ctx)
	if err != nil {
		return nil, err
	}

	refine := func(text string) (string, error) {
		outcome := refiner.Refine(ctx, text, purpose)
		if outcome.Failed() {
			return "", errors.New(outcome.Message())
		}
		a.out.Notef("Refined input: %s", outcome.Text)
		return outcome.Text, nil
	}

	switch v := c.(type) {
	case prompt.ROIContext:
		v.InitiativeDescription, err = refine(v.InitiativeDescription)
		return v, err
	case prompt.SkillGapsContext:
		v.DepartmentDescription, err = refine(v.DepartmentDescription)
		return v, err
	case prompt.DevPlanContext:
		v.Goals, err = refine(v.Goals)
		return v, err
	}
	return c, nil
}

func reportTitle(c prompt.Context) string {
	title := c.Kind().Title()
	var subject string
	switch v := c.(type) {
	case prompt.ROIContext:
		subject = v.InitiativeDescription
	case prompt.SkillGapsContext:
		subject = v.DepartmentDescription
	case prompt.DevPlanContext:
		if v.Employee != nil {
			subject = v.Employee.Name
		}
	}
	subject = strings.Join(strings.Fields(subject), " ")
	if subject == "" {
		return title
	}
	if r := []rune(subject); len(r) > 40 {
		subject = string(r[:37]) + "..."
	}
	return title + ": " + subject
}
