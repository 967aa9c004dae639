package cli

import (
	"fmt"
	"strings"

	"resumefit/internal/errors"
	"resumefit/internal/store"

	"github.com/spf13/cobra"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	Long: `Apply the embedded schema migrations to the configured sqlite or
postgres store. With --status only the applied schema version is printed.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Print the applied schema version without migrating")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	driver := strings.ToLower(cfg.Store.Driver)
	if driver == "" || driver == store.DriverMemory {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"The in-memory store has no schema; set store.driver to sqlite or postgres", nil)
	}

	storeCfg := cfg.Store
	storeCfg.AutoMigrate = false
	repo, err := store.OpenSQL(ctx, storeCfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.LogError(err, "Failed to close database")
		}
	}()

	if !migrateStatus {
		if err := repo.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("Migrations applied", "driver", driver)
	}

	version, err := repo.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d\n", version)
	return nil
}
