package cli

import (
	"context"
	"fmt"
	"strings"

	"resumefit/internal/common"
	"resumefit/internal/errors"
	"resumefit/internal/service"
	"resumefit/internal/store"

	"github.com/spf13/cobra"
)

var (
	jobsFormat string
	jobsOutput string

	jobTitle            string
	jobCompany          string
	jobLevel            string
	jobRequirementsFile string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage saved job postings",
	Long: `Manage the job postings kept in the configured store.

Saved jobs can be matched repeatedly with "resumefit match --job-id".
The in-memory store keeps nothing between runs; configure sqlite or
postgres to use these commands across invocations.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadRuntime(cmd, args); err != nil {
			return err
		}
		cfg := getConfigFromContext(cmd.Context())
		if jobsFormat == "" {
			jobsFormat = cfg.App.DefaultFormat
		}
		if err := common.ValidateOutputFormat(jobsFormat, cfg.App.SupportedFormats); err != nil {
			return err
		}
		warnEphemeralStore(cfg, getLoggerFromContext(cmd.Context()))
		return nil
	},
}

var jobsAddCmd = &cobra.Command{
	Use:   "add [description-file]",
	Short: "Save a job posting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJobs(cmd, "jobs add", func(ctx context.Context, svc *service.Service) (store.SavedJob, error) {
			if strings.TrimSpace(jobTitle) == "" {
				return store.SavedJob{}, errors.NewValidationError(errors.ErrCodeInvalidInput,
					"A job title is required (--title)", nil)
			}
			job, err := readJobContext(ctx, svc, args[0], jobTitle, jobRequirementsFile)
			if err != nil {
				return store.SavedJob{}, err
			}
			return svc.SaveJob(ctx, store.SavedJob{
				Title:           job.Title,
				Company:         strings.TrimSpace(jobCompany),
				Description:     job.Description,
				Requirements:    job.Requirements,
				ExperienceLevel: strings.TrimSpace(jobLevel),
			})
		})
	},
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved job postings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJobs(cmd, "jobs list", func(ctx context.Context, svc *service.Service) ([]store.SavedJob, error) {
			jobs, err := svc.ListJobs(ctx)
			if jobs == nil {
				jobs = []store.SavedJob{}
			}
			return jobs, err
		})
	},
}

var jobsShowCmd = &cobra.Command{
	Use:   "show [job-id]",
	Short: "Show a saved job posting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJobs(cmd, "jobs show", func(ctx context.Context, svc *service.Service) (store.SavedJob, error) {
			return svc.GetJob(ctx, args[0])
		})
	},
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete [job-id]",
	Short: "Delete a saved job posting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := getLoggerFromContext(ctx)
		svc, err := buildService(ctx, getConfigFromContext(ctx), logger, nil)
		if err != nil {
			return err
		}
		defer func() {
			if err := svc.Close(); err != nil {
				logger.LogError(err, "Failed to close service")
			}
		}()

		if err := svc.DeleteJob(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", args[0])
		return nil
	},
}

func init() {
	jobsCmd.PersistentFlags().StringVarP(&jobsFormat, "format", "f", "", "Output format: json, text, markdown (default from config)")
	jobsCmd.PersistentFlags().StringVarP(&jobsOutput, "output", "o", "", "Output file (default: stdout)")

	jobsAddCmd.Flags().StringVar(&jobTitle, "title", "", "Job title (required)")
	jobsAddCmd.Flags().StringVar(&jobCompany, "company", "", "Hiring company")
	jobsAddCmd.Flags().StringVar(&jobLevel, "level", "", "Experience level, for example senior")
	jobsAddCmd.Flags().StringVar(&jobRequirementsFile, "requirements-file", "", "File listing the job requirements")

	jobsCmd.AddCommand(jobsAddCmd, jobsListCmd, jobsShowCmd, jobsDeleteCmd)
}

// runJobs builds the service, runs op and prints its result
func runJobs[Output any](cmd *cobra.Command, name string, op func(context.Context, *service.Service) (Output, error)) error {
	ctx := cmd.Context()
	logger := getLoggerFromContext(ctx)
	svc, err := buildService(ctx, getConfigFromContext(ctx), logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.LogError(err, "Failed to close service")
		}
	}()

	cmdConfig := common.CommandConfig{OutputFile: jobsOutput, OutputFormat: jobsFormat}
	return common.RunCommand(ctx, logger, cmdConfig, name, func(ctx context.Context) (Output, error) {
		return op(ctx, svc)
	})
}
