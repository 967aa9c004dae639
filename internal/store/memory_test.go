package store

import (
	"context"
	"testing"
	"time"

	"resumefit/internal/analysis"
	"resumefit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryAnalyses(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := repo.SaveAnalysis(ctx, AnalysisRecord{
			ResumeID:  "resume-1",
			ScoreCard: analysis.ScoreCard{ATSScore: 50 + i},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err := repo.SaveAnalysis(ctx, AnalysisRecord{ResumeID: "resume-2"})
	require.NoError(t, err)

	records, err := repo.ListAnalysesByResume(ctx, "resume-1", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 52, records[0].ScoreCard.ATSScore, "newest record first")
	assert.Equal(t, 51, records[1].ScoreCard.ATSScore)

	got, err := repo.GetAnalysis(ctx, records[0].ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.SourceRules, got.ScoreCard.NarrativeSource)
	assert.NotNil(t, got.ScoreCard.Strengths)

	_, err = repo.GetAnalysis(ctx, "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeRecordNotFound))

	empty, err := repo.ListAnalysesByResume(ctx, "unknown", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryRepositoryJobs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.SaveJob(ctx, SavedJob{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))

	older, err := repo.SaveJob(ctx, SavedJob{Title: "Backend Engineer", CreatedAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	newer, err := repo.SaveJob(ctx, SavedJob{Title: " Data Engineer ", Description: "Spark and SQL"})
	require.NoError(t, err)
	assert.Equal(t, "Data Engineer", newer.Title)
	assert.NotEmpty(t, newer.ID)

	jobs, err := repo.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, newer.ID, jobs[0].ID)

	require.NoError(t, repo.DeleteJob(ctx, older.ID))
	_, err = repo.GetJob(ctx, older.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeRecordNotFound))
	assert.True(t, errors.HasCode(repo.DeleteJob(ctx, older.ID), errors.ErrCodeRecordNotFound))
}

func TestMemoryRepositoryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := NewMemoryRepository()

	_, err := repo.SaveAnalysis(ctx, AnalysisRecord{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.Ping(ctx), context.Canceled)
}

func TestSavedJobContext(t *testing.T) {
	job := SavedJob{Title: "SRE", Description: "Run Kubernetes", Requirements: "Go"}
	jc := job.JobContext()
	assert.Equal(t, "SRE", jc.Title)
	assert.Contains(t, jc.Text(), "Requirements: Go")
}
