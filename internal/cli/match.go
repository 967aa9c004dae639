package cli

import (
	"context"
	"strings"

	"resumefit/internal/analysis"
	"resumefit/internal/common"
	"resumefit/internal/errors"
	"resumefit/internal/service"
	"resumefit/internal/store"

	"github.com/spf13/cobra"
)

var (
	matchFlags            outputFlags
	matchJobID            string
	matchTitle            string
	matchRequirementsFile string
)

var matchCmd = &cobra.Command{
	Use:   "match [resume-file] [job-file]",
	Short: "Score a resume against a job posting",
	Long: `Score a resume against a job posting.

The posting is either read from job-file or selected with --job-id from the
jobs saved with "resumefit jobs add". The score card adds a match score and
the keywords the resume covers and misses.`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && matchJobID == "" {
			return errors.NewValidationError(errors.ErrCodeInvalidInput,
				"Either a job file or --job-id is required", nil)
		}
		return matchFlags.resolve(getConfigFromContext(cmd.Context()))
	},
	RunE: runMatch,
}

func init() {
	matchFlags.register(matchCmd)
	matchCmd.Flags().StringVar(&matchJobID, "job-id", "", "Saved job to match against")
	matchCmd.Flags().StringVar(&matchTitle, "title", "", "Job title for a job file")
	matchCmd.Flags().StringVar(&matchRequirementsFile, "requirements-file", "", "File listing the job requirements")
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	svc, err := buildService(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.LogError(err, "Failed to close service")
		}
	}()
	if matchFlags.save || matchJobID != "" {
		warnEphemeralStore(cfg, logger)
	}

	return common.RunCommand(ctx, logger, matchFlags.commandConfig(), "match",
		func(ctx context.Context) (store.AnalysisRecord, error) {
			resumeText, err := svc.ReadFile(ctx, args[0])
			if err != nil {
				return store.AnalysisRecord{}, err
			}

			req := service.MatchRequest{
				ResumeText: resumeText,
				JobID:      matchJobID,
				Save:       matchFlags.save,
			}
			if matchFlags.save {
				req.ResumeID = defaultResumeID(matchFlags.resumeID, args[0])
			}
			if len(args) > 1 {
				if req.Job, err = readJobContext(ctx, svc, args[1], matchTitle, matchRequirementsFile); err != nil {
					return store.AnalysisRecord{}, err
				}
			}
			return svc.Match(ctx, req)
		})
}

// readJobContext loads a posting from a description file and an optional requirements file
func readJobContext(ctx context.Context, svc *service.Service, descriptionFile, title, requirementsFile string) (analysis.JobContext, error) {
	description, err := svc.ReadFile(ctx, descriptionFile)
	if err != nil {
		return analysis.JobContext{}, err
	}
	job := analysis.JobContext{Title: strings.TrimSpace(title), Description: description}
	if requirementsFile != "" {
		if job.Requirements, err = svc.ReadFile(ctx, requirementsFile); err != nil {
			return analysis.JobContext{}, err
		}
	}
	return job, nil
}
