package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bimmerbailey/aura/internal/company"
	"github.com/bimmerbailey/aura/internal/config"
	"github.com/bimmerbailey/aura/internal/llm"
	"github.com/bimmerbailey/aura/internal/logging"
	"github.com/bimmerbailey/aura/internal/output"
	"github.com/bimmerbailey/aura/internal/predict"
	"github.com/bimmerbailey/aura/internal/redact"
	"github.com/bimmerbailey/aura/internal/report"
	"github.com/bimmerbailey/aura/internal/storage"
)

// app bundles what a command needs. Providers are created lazily so that
// commands which never call a model work without credentials.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	out       *output.Writer
	w         io.Writer
	in        io.Reader
	store     storage.Store
	companies *company.Repository
	reports   *report.History
	redactor  *redact.Redactor
	now       func() time.Time

	newProvider func(ctx context.Context) (llm.Provider, error)
	provider    llm.Provider
}

func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Storage.Dir = expandHome(cfg.Storage.Dir)
	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	cfg.Log.File = expandHome(cfg.Log.File)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log, cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	store, err := storage.New(cmd.Context(), cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	a, err := assemble(cfg, logger, cmd.OutOrStdout(), cmd.InOrStdin(), store)
	if err != nil {
		store.Close()
		return nil, err
	}
	a.newProvider = func(ctx context.Context) (llm.Provider, error) {
		return llm.NewProvider(ctx, cfg, logger)
	}
	return a, nil
}

func assemble(cfg *config.Config, logger *slog.Logger, w io.Writer, in io.Reader, store storage.Store) (*app, error) {
	companies, err := company.NewRepository(store, logger)
	if err != nil {
		return nil, err
	}
	reports, err := report.NewHistory(store, logger)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:       cfg,
		logger:    logger,
		out:       output.New(w, output.ParseFormat(cfg.Format), output.ParseColorMode(cfg.Color)),
		w:         w,
		in:        in,
		store:     store,
		companies: companies,
		reports:   reports,
		redactor:  redact.New(cfg.Redaction.Enabled, cfg.Redaction.Patterns),
		now:       time.Now,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// llmProvider returns the configured provider, creating it on first use.
func (a *app) llmProvider(ctx context.Context) (llm.Provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}
	p, err := a.newProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w\n\nTroubleshooting:\n- Check provider config in ~/.aura.yaml\n- For cloud providers, verify API keys are set (GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY)\n- For Ollama, ensure it is running: ollama serve", err)
	}
	a.provider = p
	return p, nil
}

func (a *app) serviceOptions() ([]predict.Option, error) {
	timeout, err := a.cfg.LLM.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	return []predict.Option{
		predict.WithTimeout(timeout),
		predict.WithModel(a.cfg.LLM.ModelOverride),
		predict.WithMaxTokens(a.cfg.LLM.MaxTokens),
		predict.WithRedactor(a.redactor),
	}, nil
}

func (a *app) service(ctx context.Context) (*predict.Service, error) {
	p, err := a.llmProvider(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := a.serviceOptions()
	if err != nil {
		return nil, err
	}
	return predict.NewService(p, a.logger, opts...)
}

func (a *app) refiner(ctx context.Context) (*predict.Refiner, error) {
	p, err := a.llmProvider(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := a.serviceOptions()
	if err != nil {
		return nil, err
	}
	return predict.NewRefiner(p, a.logger, opts...)
}

// company resolves ref, or the selected company when ref is empty.
func (a *app) company(ctx context.Context, ref string) (company.Company, error) {
	if ref == "" {
		return a.companies.Selected(ctx)
	}
	return a.companies.Find(ctx, ref)
}

// withApp adapts a run function that needs an app into a cobra RunE.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		err = run(cmd, a, args)
		if n := a.redactor.Masked(); n > 0 {
			a.logger.Info("redacted personal data before sending", "values", n)
		}
		return err
	}
}
