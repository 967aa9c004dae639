// Package service ties text extraction, caching, scoring and persistence together for the CLI and the HTTP server.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resumefit/internal/ai"
	"resumefit/internal/analysis"
	"resumefit/internal/cache"
	"resumefit/internal/errors"
	"resumefit/internal/extract"
	"resumefit/internal/observability"
	"resumefit/internal/store"
)

// AnalyzeRequest asks for an ATS-only score card
type AnalyzeRequest struct {
	ResumeText string
	ResumeID   string
	Save       bool
}

// MatchRequest asks for a score card against a job. JobID, when set, selects a saved job
// and takes precedence over Job.
type MatchRequest struct {
	ResumeText string
	ResumeID   string
	JobID      string
	Job        analysis.JobContext
	Save       bool
}

// HealthStatus summarizes the scoring dependencies
type HealthStatus struct {
	Status       string        `json:"status"`
	Store        string        `json:"store"`
	Cache        string        `json:"cache"`
	Augmenter    string        `json:"augmenter"`
	BreakerState string        `json:"breakerState,omitempty"`
	Model        *ai.ModelInfo `json:"model,omitempty"`
}

// Service runs analyses end to end. It is safe for concurrent use.
type Service struct {
	engine      *analysis.Engine
	repo        store.Repository
	cache       cache.Cache
	metrics     *observability.Metrics
	health      ai.HealthReporter
	logger      *errors.Logger
	namespace   string
	maxFileSize int64
}

// Option configures a Service
type Option func(*Service)

// WithCache enables score card caching
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithMetrics records analysis metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithHealthReporter exposes the remote augmenter state on Health
func WithHealthReporter(h ai.HealthReporter) Option {
	return func(s *Service) { s.health = h }
}

// WithLogger sets the service logger
func WithLogger(l *errors.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithCacheNamespace adds a component to every cache key, such as a digest of the
// score weights, so cards computed under other settings are not reused.
func WithCacheNamespace(ns string) Option {
	return func(s *Service) {
		if ns != "" {
			s.namespace += "|" + ns
		}
	}
}

// WithMaxFileSize limits uploaded and read documents
func WithMaxFileSize(n int64) Option {
	return func(s *Service) { s.maxFileSize = n }
}

// New builds a service over an engine and a repository.
func New(engine *analysis.Engine, repo store.Repository, opts ...Option) *Service {
	mode := analysis.SourceRules
	if engine.Augmented() {
		mode = analysis.SourceAugmented
	}
	s := &Service{
		engine:    engine,
		repo:      repo,
		cache:     cache.Noop{},
		metrics:   &observability.Metrics{},
		namespace: engine.Dictionary().Version() + "|" + mode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadFile extracts a document from disk within the size limit
func (s *Service) ReadFile(ctx context.Context, path string) (string, error) {
	return extract.ReadFile(ctx, path, s.maxFileSize)
}

// ExtractText extracts an uploaded document within the size limit
func (s *Service) ExtractText(ctx context.Context, name string, data []byte) (string, error) {
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return "", errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("Upload exceeds the %s limit", extract.FormatFileSize(s.maxFileSize)), nil)
	}
	return extract.Text(ctx, name, data)
}

// Analyze scores a resume without job context.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (store.AnalysisRecord, error) {
	card, err := s.scored(ctx, observability.KindATS, req.ResumeText, "", func(ctx context.Context) (analysis.ScoreCard, error) {
		return s.engine.AnalyzeResume(ctx, req.ResumeText)
	})
	if err != nil {
		return store.AnalysisRecord{}, err
	}

	record := store.AnalysisRecord{ResumeID: req.ResumeID, ScoreCard: card}
	return s.finish(ctx, record, req.Save)
}

// Match scores a resume against a saved or inline job posting.
func (s *Service) Match(ctx context.Context, req MatchRequest) (store.AnalysisRecord, error) {
	job := req.Job
	if req.JobID != "" {
		saved, err := s.repo.GetJob(ctx, req.JobID)
		if err != nil {
			return store.AnalysisRecord{}, err
		}
		job = saved.JobContext()
	}
	if strings.TrimSpace(req.ResumeText) == "" {
		err := errors.NewValidationError(errors.ErrCodeInvalidInput, "resume text is required", nil)
		s.metrics.RecordAnalysis(ctx, observability.KindMatch, nil, err)
		return store.AnalysisRecord{}, err
	}

	card, err := s.scored(ctx, observability.KindMatch, req.ResumeText, job.Text(), func(ctx context.Context) (analysis.ScoreCard, error) {
		return s.engine.AnalyzeResumeForJob(ctx, job, req.ResumeText)
	})
	if err != nil {
		return store.AnalysisRecord{}, err
	}

	record := store.AnalysisRecord{
		ResumeID:  req.ResumeID,
		JobID:     req.JobID,
		JobTitle:  strings.TrimSpace(job.Title),
		ScoreCard: card,
	}
	return s.finish(ctx, record, req.Save)
}

// scored consults the cache before running fn, and stores fresh cards
func (s *Service) scored(ctx context.Context, kind, resumeText, jobText string, fn func(context.Context) (analysis.ScoreCard, error)) (analysis.ScoreCard, error) {
	key := cache.Key(s.namespace+"|"+kind, resumeText, jobText)
	if card, ok := s.cache.Get(ctx, key); ok {
		s.metrics.RecordCacheLookup(ctx, true)
		s.metrics.RecordAnalysis(ctx, kind, &card, nil)
		s.logger.Debug("Score card served from cache", "kind", kind)
		return card, nil
	}
	s.metrics.RecordCacheLookup(ctx, false)

	start := time.Now()
	card, err := fn(ctx)
	if err != nil {
		s.metrics.RecordAnalysis(ctx, kind, nil, err)
		return analysis.ScoreCard{}, err
	}
	s.metrics.RecordAnalysis(ctx, kind, &card, nil)
	s.logger.Debug("Analysis completed",
		"kind", kind,
		"ats_score", card.ATSScore,
		"narrative_source", card.NarrativeSource,
		"duration_ms", time.Since(start).Milliseconds())

	if s.engine.Augmented() && card.NarrativeSource == analysis.SourceRules {
		// every augmenter call failed; a later request may get the narrative
		s.logger.Debug("Skipping cache for rule-based fallback card", "kind", kind)
		return card, nil
	}
	s.cache.Set(ctx, key, card)
	return card, nil
}

func (s *Service) finish(ctx context.Context, record store.AnalysisRecord, save bool) (store.AnalysisRecord, error) {
	if !save {
		record.CreatedAt = time.Now().UTC()
		record.ScoreCard.Normalize()
		return record, nil
	}
	saved, err := s.repo.SaveAnalysis(ctx, record)
	if err != nil {
		s.logger.LogError(err, "Failed to persist analysis", "resume_id", record.ResumeID)
		return store.AnalysisRecord{}, err
	}
	return saved, nil
}

// GetAnalysis loads a stored record
func (s *Service) GetAnalysis(ctx context.Context, id string) (store.AnalysisRecord, error) {
	return s.repo.GetAnalysis(ctx, id)
}

// History lists a resume's records newest first
func (s *Service) History(ctx context.Context, resumeID string, limit int) ([]store.AnalysisRecord, error) {
	if strings.TrimSpace(resumeID) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidInput, "resume ID is required", nil)
	}
	return s.repo.ListAnalysesByResume(ctx, resumeID, limit)
}

// SaveJob stores a job posting
func (s *Service) SaveJob(ctx context.Context, job store.SavedJob) (store.SavedJob, error) {
	return s.repo.SaveJob(ctx, job)
}

// GetJob loads a job posting
func (s *Service) GetJob(ctx context.Context, id string) (store.SavedJob, error) {
	return s.repo.GetJob(ctx, id)
}

// ListJobs lists job postings newest first
func (s *Service) ListJobs(ctx context.Context) ([]store.SavedJob, error) {
	return s.repo.ListJobs(ctx)
}

// DeleteJob removes a job posting
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	return s.repo.DeleteJob(ctx, id)
}

// Health checks the store and cache and reports augmenter state.
// The status is "degraded" when the store is unreachable.
func (s *Service) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{Status: "healthy", Store: "ok", Cache: "ok", Augmenter: "disabled"}

	if err := s.repo.Ping(ctx); err != nil {
		status.Status = "degraded"
		status.Store = "unavailable"
		s.logger.LogError(err, "Store health check failed")
	}
	if err := s.cache.Ping(ctx); err != nil {
		status.Cache = "unavailable"
	}
	if s.engine.Augmented() {
		status.Augmenter = "enabled"
	}
	if s.health != nil {
		status.BreakerState = s.health.BreakerState()
		status.Model = s.health.ModelInfo(ctx)
	}
	return status
}

// Close releases the repository and cache
func (s *Service) Close() error {
	cacheErr := s.cache.Close()
	if err := s.repo.Close(); err != nil {
		return err
	}
	return cacheErr
}
