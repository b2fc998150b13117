package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bimmerbailey/aura/internal/company"
)

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Manage the employees of a company",
	Long: `List, add, update and remove employees. Commands act on the selected
company unless --company is given. Employee ids are never reused.`,
}

var employeeListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List employees",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    withApp(runEmployeeList),
}

var employeeAddCmd = &cobra.Command{
	Use:   "add --name <name> --role <role> --department <department>",
	Short: "Add an employee",
	Args:  cobra.NoArgs,
	RunE:  withApp(runEmployeeAdd),
}

var employeeUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change an employee's name, role or department",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runEmployeeUpdate),
}

var employeeRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Short:   "Remove an employee",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE:    withApp(runEmployeeRemove),
}

func init() {
	employeeCmd.PersistentFlags().StringP("company", "c", "", "company id or name (default is the selected company)")

	for _, c := range []*cobra.Command{employeeAddCmd, employeeUpdateCmd} {
		c.Flags().String("name", "", "full name")
		c.Flags().String("role", "", "job title")
		c.Flags().String("department", "", "department")
	}
	_ = employeeAddCmd.MarkFlagRequired("name")
	_ = employeeAddCmd.MarkFlagRequired("role")
	_ = employeeAddCmd.MarkFlagRequired("department")

	employeeCmd.AddCommand(employeeListCmd, employeeAddCmd, employeeUpdateCmd, employeeRemoveCmd)
	rootCmd.AddCommand(employeeCmd)
}

func targetCompany(cmd *cobra.Command, a *app) (company.Company, error) {
	ref, _ := cmd.Flags().GetString("company")
	return a.company(cmd.Context(), ref)
}

func runEmployeeList(cmd *cobra.Command, a *app, args []string) error {
	c, err := targetCompany(cmd, a)
	if err != nil {
		return err
	}
	return a.out.WriteEmployees(c)
}

func runEmployeeAdd(cmd *cobra.Command, a *app, args []string) error {
	c, err := targetCompany(cmd, a)
	if err != nil {
		return err
	}

	var e company.Employee
	e.Name, _ = cmd.Flags().GetString("name")
	e.Role, _ = cmd.Flags().GetString("role")
	e.Department, _ = cmd.Flags().GetString("department")

	added, err := a.companies.AddEmployee(cmd.Context(), strconv.Itoa(c.ID), e)
	if err != nil {
		return err
	}
	a.out.Notef("Added %s to %s with id %d", added.Name, c.Name, added.ID)
	return nil
}

func runEmployeeUpdate(cmd *cobra.Command, a *app, args []string) error {
	c, err := targetCompany(cmd, a)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid employee id: %s", args[0])
	}
	existing, ok := c.Employee(id)
	if !ok {
		return fmt.Errorf("%w: %d", company.ErrEmployeeNotFound, id)
	}

	e := *existing
	if cmd.Flags().Changed("name") {
		e.Name, _ = cmd.Flags().GetString("name")
	}
	if cmd.Flags().Changed("role") {
		e.Role, _ = cmd.Flags().GetString("role")
	}
	if cmd.Flags().Changed("department") {
		e.Department, _ = cmd.Flags().GetString("department")
	}

	if err := a.companies.UpdateEmployee(cmd.Context(), strconv.Itoa(c.ID), e); err != nil {
		return err
	}
	a.out.Notef("Updated employee %d", id)
	return nil
}

func runEmployeeRemove(cmd *cobra.Command, a *app, args []string) error {
	c, err := targetCompany(cmd, a)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid employee id: %s", args[0])
	}
	if err := a.companies.RemoveEmployee(cmd.Context(), strconv.Itoa(c.ID), id); err != nil {
		return err
	}
	a.out.Notef("Removed employee %d from %s", id, c.Name)
	return nil
}
