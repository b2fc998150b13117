package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bimmerbailey/aura/internal/config"
)

var zeroTime time.Time

var reportCmd = &cobra.Command{
	Use:     "report",
	Short:   "Browse the report history",
	Aliases: []string{"reports", "history"},
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reports, newest first",
	Long: `List saved reports, newest first.

Examples:
  aura report list
  aura report list --since 2d
  aura report list --since 2025-01-26 --format json`,
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    withApp(runReportList),
}

var reportShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved report and its chat transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runReportShow),
}

var reportDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a saved report",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE:    withApp(runReportDelete),
}

func init() {
	reportListCmd.Flags().String("since", "", "only reports newer than this (relative like '2d', '6h' or a date like '2025-01-26')")

	reportCmd.AddCommand(reportListCmd, reportShowCmd, reportDeleteCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportList(cmd *cobra.Command, a *app, args []string) error {
	now := a.now()

	since := zeroTime
	if s, _ := cmd.Flags().GetString("since"); s != "" {
		t, err := config.ParseSince(s, now)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		since = t
	}

	reports, err := a.reports.List(cmd.Context(), since)
	if err != nil {
		return err
	}
	return a.out.WriteReports(reports, now)
}

func runReportShow(cmd *cobra.Command, a *app, args []string) error {
	r, err := a.reports.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return a.out.WriteReport(r, a.now())
}

func runReportDelete(cmd *cobra.Command, a *app, args []string) error {
	if err := a.reports.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	a.out.Notef("Deleted report %s", args[0])
	return nil
}
