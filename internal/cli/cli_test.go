package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resumefit/internal/analysis"
	"resumefit/internal/config"
	"resumefit/internal/errors"
	"resumefit/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testResume = `Jane Doe
jane.doe@example.com | (555) 123-4567

Experience
Senior Software Engineer, Acme Corp
Built Go services on Kubernetes and PostgreSQL, led a team of five engineers.

Education
B.S. Computer Science

Skills
Go, Python, Kubernetes, Docker, PostgreSQL, AWS`

const testPosting = `We are hiring a backend engineer to build Go services on Kubernetes with PostgreSQL and AWS.`

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	w := analysis.DefaultWeights()
	cfg := &config.Config{}
	cfg.App.DefaultFormat = "json"
	cfg.App.SupportedFormats = []string{"json", "text", "markdown"}
	cfg.App.MaxFileSize = 1 << 20
	cfg.AI.Provider = "none"
	cfg.Analysis.AugmenterTimeout = time.Second
	cfg.Analysis.Weights = config.WeightsConfig{
		Base: w.Base, ContactInfo: w.ContactInfo, Email: w.Email, Phone: w.Phone,
		Experience: w.Experience, Education: w.Education, Skills: w.Skills,
		PerKeyword: w.PerKeyword, KeywordCap: w.KeywordCap,
		ShortTextThreshold: w.ShortTextThreshold, ShortTextPenalty: w.ShortTextPenalty,
		HealthyMinWords: w.HealthyMinWords, HealthyBonus: w.HealthyBonus,
		LongTextThreshold: w.LongTextThreshold, NeutralMatchScore: w.NeutralMatchScore,
		BreadthBonus: w.BreadthBonus,
	}
	cfg.Store.Driver = driver
	if driver == store.DriverSQLite {
		cfg.Store.DSN = filepath.Join(t.TempDir(), "data", "resumefit.db")
		cfg.Store.AutoMigrate = true
	}
	return cfg
}

// executeCommand runs the root command with cfg already on the context
func executeCommand(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	logger := errors.NewLoggerWithWriter(slog.LevelError, io.Discard)
	ctx := withRuntime(context.Background(), cfg, logger)

	sub, _, err := rootCmd.Find(args)
	require.NoError(t, err)
	sub.SetContext(ctx)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err = rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func readJSON[T any](t *testing.T, path string) T {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

func TestDefaultResumeID(t *testing.T) {
	tests := []struct {
		name     string
		resumeID string
		path     string
		expected string
	}{
		{name: "explicit", resumeID: "jane", path: "cv.pdf", expected: "jane"},
		{name: "trimmed", resumeID: "  jane  ", path: "cv.pdf", expected: "jane"},
		{name: "from file", path: "/tmp/resumes/jane-doe.pdf", expected: "jane-doe"},
		{name: "no extension", path: "resume", expected: "resume"},
		{name: "double extension", path: "cv.backup.docx", expected: "cv.backup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := defaultResumeID(tt.resumeID, tt.path); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSettingsDigest(t *testing.T) {
	w := analysis.DefaultWeights()
	a := settingsDigest(w, []string{"rust"})
	assert.Len(t, a, 12)
	assert.Equal(t, a, settingsDigest(w, []string{"rust"}))
	assert.NotEqual(t, a, settingsDigest(w, nil))

	w.PerKeyword++
	assert.NotEqual(t, a, settingsDigest(w, []string{"rust"}))
}

func TestAnalyzeAndHistoryCommands(t *testing.T) {
	cfg := testConfig(t, store.DriverSQLite)
	dir := t.TempDir()
	resume := writeFile(t, dir, "jane-doe.txt", testResume)
	out := filepath.Join(dir, "analysis.json")

	_, err := executeCommand(t, cfg, "analyze", resume, "--save", "-o", out)
	require.NoError(t, err)

	record := readJSON[store.AnalysisRecord](t, out)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "jane-doe", record.ResumeID)
	assert.Nil(t, record.ScoreCard.MatchScore)
	assert.Greater(t, record.ScoreCard.ATSScore, 0)

	historyFile := filepath.Join(dir, "history.json")
	_, err = executeCommand(t, cfg, "history", "jane-doe", "-o", historyFile)
	require.NoError(t, err)

	records := readJSON[[]store.AnalysisRecord](t, historyFile)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)
}

func TestJobsAndMatchCommands(t *testing.T) {
	cfg := testConfig(t, store.DriverSQLite)
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", testResume)
	posting := writeFile(t, dir, "posting.txt", testPosting)

	jobFile := filepath.Join(dir, "job.json")
	_, err := executeCommand(t, cfg, "jobs", "add", posting, "--title", "Backend Engineer", "--company", "Acme", "-o", jobFile)
	require.NoError(t, err)
	job := readJSON[store.SavedJob](t, jobFile)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, "Acme", job.Company)

	matchFile := filepath.Join(dir, "match.json")
	_, err = executeCommand(t, cfg, "match", resume, "--job-id", job.ID, "-o", matchFile)
	require.NoError(t, err)
	record := readJSON[store.AnalysisRecord](t, matchFile)
	require.NotNil(t, record.ScoreCard.MatchScore)
	assert.Equal(t, job.ID, record.JobID)
	assert.True(t, record.ScoreCard.MatchedKeywords.Contains("kubernetes"))

	output, err := executeCommand(t, cfg, "jobs", "delete", job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Deleted job "+job.ID+"\n", output)

	_, err = executeCommand(t, cfg, "jobs", "show", job.ID)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeRecordNotFound, appErr.Code)
}

func TestMatchRequiresJob(t *testing.T) {
	matchJobID = ""
	cfg := testConfig(t, store.DriverMemory)
	resume := writeFile(t, t.TempDir(), "resume.txt", testResume)

	_, err := executeCommand(t, cfg, "match", resume)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--job-id")
}

func TestMigrateCommand(t *testing.T) {
	_, err := executeCommand(t, testConfig(t, store.DriverMemory), "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in-memory store has no schema")

	cfg := testConfig(t, store.DriverSQLite)
	output, err := executeCommand(t, cfg, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "Schema version: 1\n", output)

	output, err = executeCommand(t, cfg, "migrate", "--status")
	require.NoError(t, err)
	assert.Equal(t, "Schema version: 1\n", output)
}

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand(t, testConfig(t, store.DriverMemory), "version")
	require.NoError(t, err)
	if !strings.HasPrefix(output, "resumefit version "+Version) {
		t.Errorf("Expected version banner, got %q", output)
	}
}
