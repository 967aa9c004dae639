// Package store persists analysis records and saved job postings.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resumefit/internal/analysis"
	"resumefit/internal/config"
	"resumefit/internal/errors"

	"github.com/google/uuid"
)

// DefaultListLimit caps history listings when the caller passes no limit
const DefaultListLimit = 20

// AnalysisRecord is a persisted score card.
type AnalysisRecord struct {
	ID        string             `json:"id"`
	ResumeID  string             `json:"resumeId,omitempty"`
	JobID     string             `json:"jobId,omitempty"`
	JobTitle  string             `json:"jobTitle,omitempty"`
	ScoreCard analysis.ScoreCard `json:"scoreCard"`
	CreatedAt time.Time          `json:"createdAt"`
}

// SavedJob is a job posting kept for repeated matching.
type SavedJob struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company,omitempty"`
	Description     string    `json:"description"`
	Requirements    string    `json:"requirements,omitempty"`
	ExperienceLevel string    `json:"experienceLevel,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// JobContext returns the engine input for the posting
func (j SavedJob) JobContext() analysis.JobContext {
	return analysis.JobContext{
		Title:        j.Title,
		Description:  j.Description,
		Requirements: j.Requirements,
	}
}

// Repository persists analyses and saved jobs. Implementations are safe for concurrent use.
type Repository interface {
	SaveAnalysis(ctx context.Context, record AnalysisRecord) (AnalysisRecord, error)
	GetAnalysis(ctx context.Context, id string) (AnalysisRecord, error)
	ListAnalysesByResume(ctx context.Context, resumeID string, limit int) ([]AnalysisRecord, error)

	SaveJob(ctx context.Context, job SavedJob) (SavedJob, error)
	GetJob(ctx context.Context, id string) (SavedJob, error)
	ListJobs(ctx context.Context) ([]SavedJob, error)
	DeleteJob(ctx context.Context, id string) error

	Ping(ctx context.Context) error
	Close() error
}

// Open builds the repository selected by cfg.Driver
func Open(ctx context.Context, cfg config.StoreConfig, logger *errors.Logger) (Repository, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverMemory:
		logger.Debug("Using in-memory store")
		return NewMemoryRepository(), nil
	case DriverSQLite, DriverPostgres:
		return OpenSQL(ctx, cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported store driver: %s", cfg.Driver), nil)
	}
}

func notFound(kind, id string) error {
	return errors.NewStorageError(errors.ErrCodeRecordNotFound,
		fmt.Sprintf("%s not found: %s", kind, id), nil).
		WithContext("id", id)
}

// prepareAnalysis assigns an ID and timestamp when missing and normalizes the card
func prepareAnalysis(record AnalysisRecord) AnalysisRecord {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.ScoreCard.Normalize()
	return record
}

func prepareJob(job SavedJob) (SavedJob, error) {
	job.Title = strings.TrimSpace(job.Title)
	if job.Title == "" && strings.TrimSpace(job.Description) == "" {
		return SavedJob{}, errors.NewValidationError(errors.ErrCodeInvalidInput,
			"job title or description is required", nil)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	return job, nil
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
