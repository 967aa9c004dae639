package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"resumefit/internal/analysis"
	"resumefit/internal/config"
	"resumefit/internal/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var analysisRowColumns = []string{
	"id", "resume_id", "job_id", "job_title", "ats_score", "match_score",
	"keywords", "matched_keywords", "missing_keywords", "features", "grammar_issues", "formatting_issues",
	"suggestions", "strengths", "weaknesses", "overall_feedback", "improvement_notes", "narrative_source", "created_at",
}

func newMockRepo(t *testing.T, dialect Dialect) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLRepository(db, dialect, nil), mock
}

func TestRebind(t *testing.T) {
	tests := []struct {
		dialect Dialect
		query   string
		want    string
	}{
		{DialectPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{DialectSQLite, "SELECT * FROM t WHERE a = ?", "SELECT * FROM t WHERE a = ?"},
		{DialectPostgres, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		if got := rebind(tt.dialect, tt.query); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}

func TestSQLSaveAnalysis(t *testing.T) {
	repo, mock := newMockRepo(t, DialectPostgres)
	card := sampleCard()
	card.FormattingIssues = nil

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analyses")).
		WithArgs(
			"analysis-1",
			sql.NullString{String: "resume-1", Valid: true},
			sql.NullString{},
			sql.NullString{String: "Backend Engineer", Valid: true},
			58,
			sql.NullInt64{Int64: 72, Valid: true},
			`["docker","java","sql"]`,
			`["docker","java"]`,
			`["kubernetes"]`,
			sqlmock.AnyArg(), // features
			sqlmock.AnyArg(), // grammar_issues
			"[]",             // formatting_issues
			sqlmock.AnyArg(), // suggestions
			`["Clear contact details"]`,
			"[]",
			"Good match.",
			"Add metrics.",
			analysis.SourceRules,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	saved, err := repo.SaveAnalysis(context.Background(), AnalysisRecord{
		ID:        "analysis-1",
		ResumeID:  "resume-1",
		JobTitle:  "Backend Engineer",
		ScoreCard: card,
	})
	require.NoError(t, err)
	assert.False(t, saved.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLGetAnalysisRecoversMalformedBlob(t *testing.T) {
	repo, mock := newMockRepo(t, DialectSQLite)
	created := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(analysisRowColumns).AddRow(
		"analysis-2", "resume-1", nil, nil, 64, nil,
		`["go","sql"]`, "[]", "[]", `{"hasEmail":true,"wordCount":310}`,
		"not-json", "[]", "[]", `["Strong skills section"]`, nil,
		"Solid resume.", "", "rules", created,
	)
	mock.ExpectQuery("(?s)SELECT (.+) FROM analyses WHERE id = \\?").
		WithArgs("analysis-2").
		WillReturnRows(rows)

	got, err := repo.GetAnalysis(context.Background(), "analysis-2")
	require.NoError(t, err)
	assert.Nil(t, got.ScoreCard.MatchScore)
	assert.True(t, got.ScoreCard.Keywords.Contains("go"))
	assert.True(t, got.ScoreCard.Features.HasEmail)
	assert.Equal(t, 310, got.ScoreCard.Features.WordCount)
	assert.NotNil(t, got.ScoreCard.GrammarIssues)
	assert.Empty(t, got.ScoreCard.GrammarIssues)
	assert.NotNil(t, got.ScoreCard.Weaknesses)
	assert.Equal(t, "resume-1", got.ResumeID)
	assert.Equal(t, created, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLGetAnalysisNotFound(t *testing.T) {
	repo, mock := newMockRepo(t, DialectPostgres)
	mock.ExpectQuery("(?s)SELECT (.+) FROM analyses WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetAnalysis(context.Background(), "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeRecordNotFound), "got %v", err)
}

func TestSQLListAnalysesByResume(t *testing.T) {
	repo, mock := newMockRepo(t, DialectPostgres)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(analysisRowColumns).
		AddRow("a2", "resume-1", "job-1", "SRE", 70, 81, "[]", "[]", "[]", "{}", "[]", "[]", "[]", "[]", "[]", "", "", "mixed", now).
		AddRow("a1", "resume-1", nil, nil, 55, nil, "[]", "[]", "[]", "{}", "[]", "[]", "[]", "[]", "[]", "", "", "rules", now.Add(-time.Hour))
	mock.ExpectQuery("(?s)SELECT (.+) FROM analyses\\s+WHERE resume_id = \\$1\\s+ORDER BY created_at DESC").
		WithArgs("resume-1", DefaultListLimit).
		WillReturnRows(rows)

	records, err := repo.ListAnalysesByResume(context.Background(), "resume-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a2", records[0].ID)
	require.NotNil(t, records[0].ScoreCard.MatchScore)
	assert.Equal(t, 81, *records[0].ScoreCard.MatchScore)
	assert.Equal(t, "job-1", records[0].JobID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLJobs(t *testing.T) {
	repo, mock := newMockRepo(t, DialectPostgres)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO saved_jobs")).
		WithArgs(sqlmock.AnyArg(), "Platform Engineer", "Acme", "Build the platform", "Go, Kubernetes", "senior", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	job, err := repo.SaveJob(ctx, SavedJob{
		Title:           "Platform Engineer",
		Company:         "Acme",
		Description:     "Build the platform",
		Requirements:    "Go, Kubernetes",
		ExperienceLevel: "senior",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)

	mock.ExpectQuery("(?s)SELECT (.+) FROM saved_jobs ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "company", "description", "requirements", "experience_level", "created_at"}).
			AddRow(job.ID, job.Title, nil, job.Description, job.Requirements, nil, job.CreatedAt))
	jobs, err := repo.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "", jobs[0].Company)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM saved_jobs WHERE id = $1")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.DeleteJob(ctx, "gone")
	assert.True(t, errors.HasCode(err, errors.ErrCodeRecordNotFound), "got %v", err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorageFailure(t *testing.T) {
	repo, mock := newMockRepo(t, DialectSQLite)
	mock.ExpectQuery("(?s)SELECT (.+) FROM saved_jobs").WillReturnError(sql.ErrConnDone)

	_, err := repo.ListJobs(context.Background())
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))
	assert.True(t, errors.HasCode(err, errors.ErrCodeStorageFailed))
}

func TestOpenSQLPingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	mock.ExpectClose()

	prev := openDB
	openDB = func(driverName, dsn string) (*sql.DB, error) {
		assert.Equal(t, "pgx", driverName)
		return db, nil
	}
	defer func() { openDB = prev }()

	_, err = OpenSQL(context.Background(), config.StoreConfig{Driver: DriverPostgres, DSN: "postgres://localhost/test"}, nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeStorageFailed), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "mongo"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	repo, err := Open(context.Background(), config.StoreConfig{Driver: DriverMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryRepository{}, repo)

	_, err = OpenSQL(context.Background(), config.StoreConfig{Driver: DriverSQLite}, nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
}

func TestEnsureSQLiteDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ensureSQLiteDir("file:"+dir+"/nested/history.db?cache=shared"))
	assert.DirExists(t, dir+"/nested")
	require.NoError(t, ensureSQLiteDir(":memory:"))
}
