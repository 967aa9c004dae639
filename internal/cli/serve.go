package cli

import (
	"context"
	"fmt"
	"time"

	"resumefit/internal/observability"
	"resumefit/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resume scoring",
	Long: `Start an HTTP server that provides REST API endpoints for resume scoring.

Available endpoints:
- POST /analyze: Score a resume for ATS readiness (JSON or multipart upload)
- POST /match: Score a resume against a job posting
- GET /analyses/{id}: Fetch a saved analysis
- GET /resumes/{resumeId}/analyses: List a resume's saved analyses
- POST /jobs, GET /jobs, GET /jobs/{id}, DELETE /jobs/{id}: Manage saved jobs
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.mode", "tls-mode")
	bindFlag("server.tls.certFile", "cert-file")
	bindFlag("server.tls.keyFile", "key-file")
	bindFlag("server.tls.caFile", "ca-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shut down observability")
		}
	}()

	svc, err := buildService(ctx, cfg, logger, om.GetMetrics())
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.LogError(err, "Failed to close service")
		}
	}()

	return server.NewServer(cfg.Server, Version, svc, om, logger).Start(ctx)
}
