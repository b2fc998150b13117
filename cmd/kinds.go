package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bimmerbailey/aura/internal/output"
	"github.com/bimmerbailey/aura/internal/prompt"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the available analysis kinds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var entries []prompt.Entry
		for _, k := range prompt.Kinds() {
			e, err := prompt.Describe(k)
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}

		out := output.New(cmd.OutOrStdout(), output.ParseFormat(cfg.Format), output.ParseColorMode(cfg.Color))
		return out.WriteKinds(entries)
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}
