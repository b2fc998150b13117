package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bimmerbailey/aura/internal/prompt"
)

var refineCmd = &cobra.Command{
	Use:   "refine <purpose> <text>",
	Short: "Expand short form input into a fuller description",
	Long: `Refine a brief description with AI before using it in a report.

Purposes:
  roi      ROI_DESCRIPTION     a training initiative
  skills   SKILL_GAPS_CONTEXT  a department or industry
  plan     DEV_PLAN_GOALS      an employee's career goal

Examples:
  aura refine roi "leadership training"
  aura refine skills Marketing
  aura refine DEV_PLAN_GOALS "become a manager"`,
	Args: cobra.MinimumNArgs(2),
	RunE: withApp(runRefine),
}

func init() {
	rootCmd.AddCommand(refineCmd)
}

type refineResult struct {
	Purpose  prompt.Purpose `json:"purpose" yaml:"purpose"`
	Original string         `json:"original" yaml:"original"`
	Refined  string         `json:"refined" yaml:"refined"`
}

func runRefine(cmd *cobra.Command, a *app, args []string) error {
	purpose, err := prompt.ParsePurpose(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")

	refiner, err := a.refiner(cmd.Context())
	if err != nil {
		return err
	}
	outcome := refiner.Refine(cmd.Context(), text, purpose)
	if outcome.Failed() {
		return errors.New(outcome.Message())
	}

	res := refineResult{Purpose: purpose, Original: text, Refined: outcome.Text}
	if ok, err := a.out.WriteStructured(res); ok {
		return err
	}
	fmt.Fprintln(a.w, outcome.Text)
	return nil
}
