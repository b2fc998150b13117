package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured LLM provider is reachable",
	Long: `Check that the configured LLM provider is reachable and that its model is
available.

Examples:
  aura check
  aura check --provider ollama`,
	Args: cobra.NoArgs,
	RunE: withApp(runCheck),
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

type checkResult struct {
	Provider       string `json:"provider" yaml:"provider"`
	Model          string `json:"model" yaml:"model"`
	Reachable      bool   `json:"reachable" yaml:"reachable"`
	ModelAvailable bool   `json:"model_available" yaml:"model_available"`
}

func runCheck(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	res := checkResult{Provider: a.cfg.LLM.Provider, Model: a.cfg.LLM.Model()}

	p, err := a.llmProvider(ctx)
	if err != nil {
		return err
	}
	if err := p.Heartbeat(ctx); err != nil {
		if res.Provider == "ollama" {
			return fmt.Errorf("cannot connect to Ollama at %s: %w\n\nStart Ollama with: ollama serve", a.cfg.LLM.Ollama.Host, err)
		}
		return fmt.Errorf("LLM provider %s unavailable: %w", res.Provider, err)
	}
	res.Reachable = true

	if res.Model != "" {
		available, err := p.ModelAvailable(ctx, res.Model)
		if err != nil {
			return err
		}
		res.ModelAvailable = available
	}

	if ok, err := a.out.WriteStructured(res); ok {
		return err
	}
	fmt.Fprintf(a.w, "%s is reachable\n", res.Provider)
	if res.Model == "" {
		return nil
	}
	if !res.ModelAvailable {
		return fmt.Errorf("model %s is not available", res.Model)
	}
	fmt.Fprintf(a.w, "model %s is available\n", res.Model)
	return nil
}
