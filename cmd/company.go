package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bimmerbailey/aura/internal/company"
	"github.com/bimmerbailey/aura/internal/storage"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage companies",
	Long: `List, select, add and remove companies. The selected company is the one
reports are generated for unless --company is given.`,
}

var companyListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List companies",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    withApp(runCompanyList),
}

var companySelectCmd = &cobra.Command{
	Use:   "select <id|name>",
	Short: "Select the company to work with",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runCompanySelect),
}

var companyAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a company",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runCompanyAdd),
}

var companyRemoveCmd = &cobra.Command{
	Use:     "remove <id|name>",
	Short:   "Remove a company",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE:    withApp(runCompanyRemove),
}

var companyWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the company list again whenever it changes",
	Long: `Watch the stored company list and print it again after every change,
including changes made by other aura processes. Supported by the file and
memory storage backends. Press Ctrl-C to stop.`,
	Args: cobra.NoArgs,
	RunE: withApp(runCompanyWatch),
}

func init() {
	companyAddCmd.Flags().String("logo", "", "logo identifier shown next to the name")

	companyCmd.AddCommand(companyListCmd, companySelectCmd, companyAddCmd, companyRemoveCmd, companyWatchCmd)
	rootCmd.AddCommand(companyCmd)
}

func runCompanyList(cmd *cobra.Command, a *app, args []string) error {
	return a.listCompanies(cmd.Context())
}

func (a *app) listCompanies(ctx context.Context) error {
	companies, err := a.companies.List(ctx)
	if err != nil {
		return err
	}
	selected, err := a.companies.Selected(ctx)
	if err != nil {
		return err
	}
	return a.out.WriteCompanies(companies, selected.ID)
}

func runCompanySelect(cmd *cobra.Command, a *app, args []string) error {
	c, err := a.companies.Select(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	a.out.Notef("Selected %s (%d employees)", c.Name, len(c.Employees))
	return nil
}

func runCompanyAdd(cmd *cobra.Command, a *app, args []string) error {
	logo, _ := cmd.Flags().GetString("logo")
	c, err := a.companies.Add(cmd.Context(), args[0], logo)
	if err != nil {
		return err
	}
	a.out.Notef("Added %s with id %d", c.Name, c.ID)
	return nil
}

func runCompanyRemove(cmd *cobra.Command, a *app, args []string) error {
	if err := a.companies.Remove(cmd.Context(), args[0]); err != nil {
		return err
	}
	a.out.Notef("Removed %s", args[0])
	return nil
}

func runCompanyWatch(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()

	watcher, ok := a.store.(storage.Watcher)
	if !ok {
		return fmt.Errorf("the %s storage backend does not support watching", a.cfg.Storage.Backend)
	}
	changes, err := watcher.Watch(ctx, company.KeyCompanies)
	if err != nil {
		return fmt.Errorf("watching companies: %w", err)
	}

	if err := a.listCompanies(ctx); err != nil {
		return err
	}
	for range changes {
		a.out.Notef("\nCompany list changed")
		if err := a.listCompanies(ctx); err != nil {
			a.out.Errorf("%v", err)
		}
	}
	return nil
}
