package observability

import (
	"fmt"
	"net/http"

	"resumefit/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusConfig holds Prometheus-specific configuration
type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
}

// SetupPrometheusExporter creates a Prometheus metric reader and the handler that serves it.
// Each call uses its own registry.
func SetupPrometheusExporter(cfg PrometheusConfig) (metric.Reader, http.Handler, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return exporter, handler, nil
}

// GetPrometheusConfig creates Prometheus configuration from provided config
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	if cfg != nil {
		endpoint := cfg.Observability.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		return PrometheusConfig{
			Enabled:  cfg.Observability.Prometheus.Enabled,
			Endpoint: endpoint,
		}
	}

	return PrometheusConfig{
		Enabled:  true,
		Endpoint: "/metrics",
	}
}
