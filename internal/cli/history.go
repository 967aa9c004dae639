package cli

import (
	"context"

	"resumefit/internal/common"
	"resumefit/internal/store"

	"github.com/spf13/cobra"
)

var (
	historyFormat string
	historyOutput string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history [resume-id]",
	Short: "List saved analyses of a resume, newest first",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if historyFormat == "" {
			historyFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(historyFormat, cfg.App.SupportedFormats)
	},
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "", "Output format: json, text, markdown (default from config)")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "", "Output file (default: stdout)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Maximum number of analyses (default 20)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)
	warnEphemeralStore(cfg, logger)

	svc, err := buildService(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.LogError(err, "Failed to close service")
		}
	}()

	cmdConfig := common.CommandConfig{OutputFile: historyOutput, OutputFormat: historyFormat}
	return common.RunCommand(ctx, logger, cmdConfig, "history", func(ctx context.Context) ([]store.AnalysisRecord, error) {
		records, err := svc.History(ctx, args[0], historyLimit)
		if records == nil {
			records = []store.AnalysisRecord{}
		}
		return records, err
	})
}
