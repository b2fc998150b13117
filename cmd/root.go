package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "aura",
	Short: "AI-assisted workforce analysis",
	Long: `Aura generates training ROI forecasts, future skill gap analyses and
personalized development plans with a large language model, then lets you
ask follow-up questions about each report.

Examples:
  aura generate roi --initiative "Leadership training for 20 new managers"
  aura generate skills --department "Marketing" --refine
  aura generate plan --employee "Alice Johnson" --goals "Become a tech lead" --chat
  aura report list --since 2d
  aura company select "Quantum Solutions"`,
	SilenceUsage: true,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.aura.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, yaml, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("color", "auto", "color output (auto, always, never)")
	rootCmd.PersistentFlags().String("provider", "", "llm provider (gemini, ollama, openai, anthropic)")
	rootCmd.PersistentFlags().String("model", "", "model name, overriding the provider's configured model")
	rootCmd.PersistentFlags().String("storage", "", "storage backend (file, sqlite, postgres, memory)")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))
	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("storage.backend", rootCmd.PersistentFlags().Lookup("storage"))
}

func initConfig() {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
		os.Exit(1)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".aura")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("AURA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(home)

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
		// Long-running commands (chat, company watch) pick up edits on
		// their next turn since every turn re-reads the config.
		viper.OnConfigChange(func(e fsnotify.Event) {
			if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "Config file changed:", e.Name)
			}
		})
		viper.WatchConfig()
	}
}

func setDefaults(home string) {
	dataDir := filepath.Join(home, ".aura")

	viper.SetDefault("format", "text")
	viper.SetDefault("verbose", false)
	viper.SetDefault("color", "auto")

	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.timeout", "90s")
	viper.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("llm.ollama.host", "http://localhost:11434")
	viper.SetDefault("llm.ollama.model", "llama3.2")
	viper.SetDefault("llm.openai.model", "gpt-4o")
	viper.SetDefault("llm.anthropic.model", "claude-sonnet-4-5")

	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.dir", dataDir)
	viper.SetDefault("storage.path", filepath.Join(dataDir, "aura.db"))

	viper.SetDefault("log.level", "")
	viper.SetDefault("redaction.enabled", false)
	viper.SetDefault("redaction.patterns", []string{"email", "phone", "ipv4", "credit_card", "api_key"})
}
