package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps records in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	analyses map[string]AnalysisRecord
	byResume map[string][]string
	jobs     map[string]SavedJob
}

// NewMemoryRepository constructs an empty MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		analyses: make(map[string]AnalysisRecord),
		byResume: make(map[string][]string),
		jobs:     make(map[string]SavedJob),
	}
}

// SaveAnalysis stores the record, assigning an ID when it has none.
func (r *MemoryRepository) SaveAnalysis(ctx context.Context, record AnalysisRecord) (AnalysisRecord, error) {
	if err := ctx.Err(); err != nil {
		return AnalysisRecord{}, err
	}
	record = prepareAnalysis(record)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.analyses[record.ID]; !exists && record.ResumeID != "" {
		r.byResume[record.ResumeID] = append(r.byResume[record.ResumeID], record.ID)
	}
	r.analyses[record.ID] = record
	return record, nil
}

// GetAnalysis returns a record by ID.
func (r *MemoryRepository) GetAnalysis(ctx context.Context, id string) (AnalysisRecord, error) {
	if err := ctx.Err(); err != nil {
		return AnalysisRecord{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.analyses[id]
	if !ok {
		return AnalysisRecord{}, notFound("analysis", id)
	}
	return record, nil
}

// ListAnalysesByResume returns the newest records for a resume first.
func (r *MemoryRepository) ListAnalysesByResume(ctx context.Context, resumeID string, limit int) ([]AnalysisRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ids := r.byResume[resumeID]
	out := make([]AnalysisRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.analyses[id])
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit = effectiveLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveJob stores a job posting.
func (r *MemoryRepository) SaveJob(ctx context.Context, job SavedJob) (SavedJob, error) {
	if err := ctx.Err(); err != nil {
		return SavedJob{}, err
	}
	job, err := prepareJob(job)
	if err != nil {
		return SavedJob{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return job, nil
}

// GetJob returns a job posting by ID.
func (r *MemoryRepository) GetJob(ctx context.Context, id string) (SavedJob, error) {
	if err := ctx.Err(); err != nil {
		return SavedJob{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return SavedJob{}, notFound("job", id)
	}
	return job, nil
}

// ListJobs returns all job postings, newest first.
func (r *MemoryRepository) ListJobs(ctx context.Context) ([]SavedJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]SavedJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteJob removes a job posting.
func (r *MemoryRepository) DeleteJob(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return notFound("job", id)
	}
	delete(r.jobs, id)
	return nil
}

// Ping always succeeds.
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (r *MemoryRepository) Close() error {
	return nil
}
