package server

import (
	"time"

	"resumefit/internal/config"
	"resumefit/internal/errors"
	"resumefit/internal/observability"
	"resumefit/internal/service"
)

// AnalyzeRequest is the JSON body for POST /analyze
type AnalyzeRequest struct {
	ResumeText string `json:"resumeText"`
	ResumeID   string `json:"resumeId,omitempty"`
	Save       bool   `json:"save,omitempty"`
}

// MatchRequest is the JSON body for POST /match. JobID selects a saved job;
// otherwise the inline posting fields are used.
type MatchRequest struct {
	ResumeText     string `json:"resumeText"`
	ResumeID       string `json:"resumeId,omitempty"`
	JobID          string `json:"jobId,omitempty"`
	JobTitle       string `json:"jobTitle,omitempty"`
	JobDescription string `json:"jobDescription,omitempty"`
	Requirements   string `json:"requirements,omitempty"`
	Save           bool   `json:"save,omitempty"`
}

// JobRequest is the JSON body for POST /jobs
type JobRequest struct {
	Title           string `json:"title"`
	Company         string `json:"company,omitempty"`
	Description     string `json:"description"`
	Requirements    string `json:"requirements,omitempty"`
	ExperienceLevel string `json:"experienceLevel,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	TLSConfig          config.TLSConfig
	CertificateManager *CertificateManager

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Service       *service.Service
	Observability *observability.ObservabilityManager
	Logger        *errors.Logger
}

// NewServer builds a server for svc from the server section of the configuration.
// om may be nil, in which case no telemetry is recorded.
func NewServer(cfg config.ServerConfig, version string, svc *service.Service, om *observability.ObservabilityManager, logger *errors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	rateLimit := cfg.RateLimit
	var rateLimiter *RateLimiter
	if rateLimit.Enabled {
		rateLimiter = NewRateLimiter(rateLimit.RequestsPerMin, rateLimit.BurstCapacity, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        version,
		TLSConfig:      cfg.TLS,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      &rateLimit,
		RateLimiter:    rateLimiter,
		Service:        svc,
		Observability:  om,
		Logger:         logger,
	}
}
