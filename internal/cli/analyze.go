package cli

import (
	"context"
	"fmt"

	"resumefit/internal/common"
	"resumefit/internal/config"
	"resumefit/internal/service"
	"resumefit/internal/store"
	"resumefit/internal/watch"

	"github.com/spf13/cobra"
)

// outputFlags are shared by the commands that print score cards
type outputFlags struct {
	format   string
	output   string
	save     bool
	resumeID string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: json, text, markdown (default from config)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&f.save, "save", false, "Persist the analysis in the configured store")
	cmd.Flags().StringVar(&f.resumeID, "resume-id", "", "Resume ID for saved analyses (default: file name)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.CompletionFormats(nil), cobra.ShellCompDirectiveNoFileComp
	})
}

// resolve fills the format default and validates it
func (f *outputFlags) resolve(cfg *config.Config) error {
	if f.format == "" {
		f.format = cfg.App.DefaultFormat
	}
	return common.ValidateOutputFormat(f.format, cfg.App.SupportedFormats)
}

func (f *outputFlags) commandConfig() common.CommandConfig {
	return common.CommandConfig{OutputFile: f.output, OutputFormat: f.format}
}

var (
	analyzeFlags outputFlags
	analyzeWatch bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Score a resume for ATS readiness",
	Long: `Score a resume for ATS readiness without a job posting.

Supported inputs are plain text, Markdown, PDF and DOCX files. The score card
covers contact details, sections, keywords, grammar and formatting issues.
With --watch the resume is scored again every time the file changes.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return analyzeFlags.resolve(getConfigFromContext(cmd.Context()))
	},
	RunE: runAnalyze,
}

func init() {
	analyzeFlags.register(analyzeCmd)
	analyzeCmd.Flags().BoolVarP(&analyzeWatch, "watch", "w", false, "Re-analyze whenever the resume file changes")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)
	path := args[0]

	svc, err := buildService(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.LogError(err, "Failed to close service")
		}
	}()
	if analyzeFlags.save {
		warnEphemeralStore(cfg, logger)
	}

	run := func() error {
		return common.RunCommand(ctx, logger, analyzeFlags.commandConfig(), "analyze",
			func(ctx context.Context) (store.AnalysisRecord, error) {
				text, err := svc.ReadFile(ctx, path)
				if err != nil {
					return store.AnalysisRecord{}, err
				}
				req := service.AnalyzeRequest{ResumeText: text, Save: analyzeFlags.save}
				if analyzeFlags.save {
					req.ResumeID = defaultResumeID(analyzeFlags.resumeID, path)
				}
				return svc.Analyze(ctx, req)
			})
	}

	if err := run(); err != nil {
		if !analyzeWatch {
			return err
		}
		logger.LogError(err, "Analysis failed", "file", path)
	}
	if !analyzeWatch {
		return nil
	}
	return watchAndRun(ctx, path, run)
}

// watchAndRun calls run after every change to path until ctx is done
func watchAndRun(ctx context.Context, path string, run func() error) error {
	logger := getLoggerFromContext(ctx)
	changes := make(chan struct{}, 1)
	w := watch.New([]string{path}, watch.DefaultDebounce, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}, logger)
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	defer func() {
		if err := w.Stop(); err != nil {
			logger.LogError(err, "Failed to stop file watcher")
		}
	}()

	logger.Info("Watching resume for changes", "file", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			logger.Info("Resume changed, re-analyzing", "file", path)
			if err := run(); err != nil {
				logger.LogError(err, "Analysis failed", "file", path)
			}
		}
	}
}
