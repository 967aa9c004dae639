package observability

import (
	"resumefit/internal/config"
)

// ObservabilityConfig holds the settings the manager is built from
type ObservabilityConfig struct {
	ServiceName     string
	ServiceVersion  string
	ServiceInstance string
	Enabled         bool
	ConsoleOutput   bool
	TracingEnabled  bool
	MetricsEnabled  bool
	SampleRate      float64
	Prometheus      PrometheusConfig
}

// GetObservabilityConfig derives observability settings from the application config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    "resumefit",
			ServiceVersion: version,
			Enabled:        true,
			TracingEnabled: true,
			MetricsEnabled: true,
			SampleRate:     1.0,
			Prometheus:     GetPrometheusConfig(nil),
		}
	}

	obs := cfg.Observability

	serviceVersion := obs.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}
	sampleRate := obs.SampleRate
	if obs.Tracing.SampleRate > 0 {
		sampleRate = obs.Tracing.SampleRate
	}

	return ObservabilityConfig{
		ServiceName:     obs.ServiceName,
		ServiceVersion:  serviceVersion,
		ServiceInstance: obs.ServiceInstance,
		Enabled:         obs.Enabled,
		ConsoleOutput:   obs.ConsoleOutput,
		TracingEnabled:  obs.Tracing.Enabled,
		MetricsEnabled:  obs.Metrics.Enabled,
		SampleRate:      sampleRate,
		Prometheus:      GetPrometheusConfig(cfg),
	}
}
