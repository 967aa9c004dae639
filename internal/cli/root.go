package cli

import (
	"context"
	"fmt"

	"resumefit/internal/config"
	"resumefit/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "resumefit",
	Short: "Score resumes for ATS readiness and job fit",
	Long: `Resumefit scores resumes the way applicant tracking systems read them.
It checks structure, contact details, keywords, grammar and formatting, and
measures how well a resume covers a job posting. Narrative feedback can
optionally be generated by Gemini; scores never depend on it.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
}

// Execute runs the CLI. Configuration is loaded after flag parsing so bound
// flags override files and environment.
func Execute(ctx context.Context) error {
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// loadRuntime attaches the config and logger to the command context
func loadRuntime(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if _, ok := ctx.Value(configKey).(*config.Config); ok {
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Debug("Starting resumefit",
		"version", Version,
		"command", cmd.Name(),
		"log_level", cfg.App.LogLevel,
		"ai_provider", cfg.AI.Provider,
		"store_driver", cfg.Store.Driver)

	cmd.SetContext(withRuntime(ctx, cfg, logger))
	return nil
}

func withRuntime(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, loggerKey, logger)
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context")
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
