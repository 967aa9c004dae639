package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"resumefit/internal/config"
	"resumefit/internal/errors"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"             // registers the "sqlite" database/sql driver
)

// Store drivers accepted by configuration
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Dialect names a SQL flavour, using goose's dialect names.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

var openDB = sql.Open

// SQLRepository implements Repository on database/sql for Postgres and SQLite.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *errors.Logger
}

// NewSQLRepository wraps an open database
func NewSQLRepository(db *sql.DB, dialect Dialect, logger *errors.Logger) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect, logger: logger}
}

// Migrate applies pending schema migrations
func (r *SQLRepository) Migrate(ctx context.Context) error {
	return Migrate(ctx, r.db, r.dialect)
}

// SchemaVersion reports the applied schema version
func (r *SQLRepository) SchemaVersion(ctx context.Context) (int64, error) {
	return MigrationVersion(ctx, r.db, r.dialect)
}

// OpenSQL opens, pings and optionally migrates the configured database.
func OpenSQL(ctx context.Context, cfg config.StoreConfig, logger *errors.Logger) (*SQLRepository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "store DSN is empty", nil)
	}

	var driverName string
	var dialect Dialect
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres:
		driverName, dialect = "pgx", DialectPostgres
	case DriverSQLite:
		driverName, dialect = "sqlite", DialectSQLite
		if err := ensureSQLiteDir(cfg.DSN); err != nil {
			return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "Failed to create database directory", err)
		}
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported SQL driver: %s", cfg.Driver), nil)
	}

	db, err := openDB(driverName, cfg.DSN)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "Failed to open database", err)
	}
	applyPoolOptions(db, cfg, dialect)

	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "Failed to ping database", err).
			WithContext("driver", cfg.Driver)
	}

	if cfg.AutoMigrate {
		if err := Migrate(ctx, db, dialect); err != nil {
			db.Close()
			return nil, err
		}
	}

	stats := db.Stats()
	logger.Info("Database ready",
		"driver", cfg.Driver,
		"open", stats.OpenConnections,
		"max_open", stats.MaxOpenConnections,
		"auto_migrate", cfg.AutoMigrate)

	return NewSQLRepository(db, dialect, logger), nil
}

func applyPoolOptions(db *sql.DB, cfg config.StoreConfig, dialect Dialect) {
	maxOpen, maxIdle := cfg.MaxOpenConns, cfg.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	// SQLite allows a single writer
	if dialect == DialectSQLite {
		maxOpen, maxIdle = 1, 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0750)
}

// rebind rewrites ? placeholders to $n for Postgres
func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (r *SQLRepository) q(query string) string {
	return rebind(r.dialect, query)
}

func storageFailure(op string, err error) error {
	return errors.NewStorageError(errors.ErrCodeStorageFailed, fmt.Sprintf("Failed to %s", op), err)
}

const analysisColumns = `id, resume_id, job_id, job_title, ats_score, match_score,
	keywords, matched_keywords, missing_keywords, features, grammar_issues, formatting_issues,
	suggestions, strengths, weaknesses, overall_feedback, improvement_notes, narrative_source, created_at`

// SaveAnalysis inserts a record.
func (r *SQLRepository) SaveAnalysis(ctx context.Context, record AnalysisRecord) (AnalysisRecord, error) {
	record = prepareAnalysis(record)
	blobs, err := encodeCard(record.ScoreCard)
	if err != nil {
		return AnalysisRecord{}, storageFailure("encode score card", err)
	}

	var matchScore sql.NullInt64
	if record.ScoreCard.MatchScore != nil {
		matchScore = sql.NullInt64{Int64: int64(*record.ScoreCard.MatchScore), Valid: true}
	}

	query := `INSERT INTO analyses (` + analysisColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	card := record.ScoreCard
	_, err = r.db.ExecContext(ctx, r.q(query),
		record.ID,
		nullString(record.ResumeID),
		nullString(record.JobID),
		nullString(record.JobTitle),
		card.ATSScore,
		matchScore,
		blobs.Keywords,
		blobs.MatchedKeywords,
		blobs.MissingKeywords,
		blobs.Features,
		blobs.GrammarIssues,
		blobs.FormattingIssues,
		blobs.Suggestions,
		blobs.Strengths,
		blobs.Weaknesses,
		card.OverallFeedback,
		card.ImprovementNotes,
		card.NarrativeSource,
		record.CreatedAt,
	)
	if err != nil {
		return AnalysisRecord{}, storageFailure("save analysis", err)
	}
	return record, nil
}

// GetAnalysis returns a record by ID.
func (r *SQLRepository) GetAnalysis(ctx context.Context, id string) (AnalysisRecord, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE id = ?`
	record, err := r.scanAnalysis(r.db.QueryRowContext(ctx, r.q(query), id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return AnalysisRecord{}, notFound("analysis", id)
		}
		return AnalysisRecord{}, storageFailure("load analysis", err)
	}
	return record, nil
}

// ListAnalysesByResume returns the newest records for a resume first.
func (r *SQLRepository) ListAnalysesByResume(ctx context.Context, resumeID string, limit int) ([]AnalysisRecord, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses
WHERE resume_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`
	rows, err := r.db.QueryContext(ctx, r.q(query), resumeID, effectiveLimit(limit))
	if err != nil {
		return nil, storageFailure("list analyses", err)
	}
	defer rows.Close()

	out := []AnalysisRecord{}
	for rows.Next() {
		record, err := r.scanAnalysis(rows)
		if err != nil {
			return nil, storageFailure("scan analysis", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storageFailure("list analyses", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLRepository) scanAnalysis(row rowScanner) (AnalysisRecord, error) {
	var (
		record                          AnalysisRecord
		resumeID, jobID, jobTitle       sql.NullString
		matchScore                      sql.NullInt64
		overall, notes, narrativeSource sql.NullString
		blobs                           cardBlobs
		raw                             [9]sql.NullString
	)
	err := row.Scan(
		&record.ID,
		&resumeID,
		&jobID,
		&jobTitle,
		&record.ScoreCard.ATSScore,
		&matchScore,
		&raw[0], &raw[1], &raw[2], &raw[3], &raw[4], &raw[5], &raw[6], &raw[7], &raw[8],
		&overall,
		&notes,
		&narrativeSource,
		&record.CreatedAt,
	)
	if err != nil {
		return AnalysisRecord{}, err
	}

	record.ResumeID = resumeID.String
	record.JobID = jobID.String
	record.JobTitle = jobTitle.String
	if matchScore.Valid {
		score := int(matchScore.Int64)
		record.ScoreCard.MatchScore = &score
	}
	record.ScoreCard.OverallFeedback = overall.String
	record.ScoreCard.ImprovementNotes = notes.String
	record.ScoreCard.NarrativeSource = narrativeSource.String

	blobs = cardBlobs{
		Keywords:         raw[0].String,
		MatchedKeywords:  raw[1].String,
		MissingKeywords:  raw[2].String,
		Features:         raw[3].String,
		GrammarIssues:    raw[4].String,
		FormattingIssues: raw[5].String,
		Suggestions:      raw[6].String,
		Strengths:        raw[7].String,
		Weaknesses:       raw[8].String,
	}
	decodeCard(&blobDecoder{recordID: record.ID, logger: r.logger}, blobs, &record.ScoreCard)
	record.CreatedAt = record.CreatedAt.UTC()
	return record, nil
}

const jobColumns = `id, title, company, description, requirements, experience_level, created_at`

// SaveJob inserts or replaces a job posting.
func (r *SQLRepository) SaveJob(ctx context.Context, job SavedJob) (SavedJob, error) {
	job, err := prepareJob(job)
	if err != nil {
		return SavedJob{}, err
	}
	query := `INSERT INTO saved_jobs (` + jobColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	title = excluded.title,
	company = excluded.company,
	description = excluded.description,
	requirements = excluded.requirements,
	experience_level = excluded.experience_level`
	_, err = r.db.ExecContext(ctx, r.q(query),
		job.ID,
		job.Title,
		job.Company,
		job.Description,
		job.Requirements,
		job.ExperienceLevel,
		job.CreatedAt,
	)
	if err != nil {
		return SavedJob{}, storageFailure("save job", err)
	}
	return job, nil
}

// GetJob returns a job posting by ID.
func (r *SQLRepository) GetJob(ctx context.Context, id string) (SavedJob, error) {
	query := `SELECT ` + jobColumns + ` FROM saved_jobs WHERE id = ?`
	job, err := scanJob(r.db.QueryRowContext(ctx, r.q(query), id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return SavedJob{}, notFound("job", id)
		}
		return SavedJob{}, storageFailure("load job", err)
	}
	return job, nil
}

// ListJobs returns all job postings, newest first.
func (r *SQLRepository) ListJobs(ctx context.Context) ([]SavedJob, error) {
	query := `SELECT ` + jobColumns + ` FROM saved_jobs ORDER BY created_at DESC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageFailure("list jobs", err)
	}
	defer rows.Close()

	out := []SavedJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, storageFailure("scan job", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, storageFailure("list jobs", err)
	}
	return out, nil
}

func scanJob(row rowScanner) (SavedJob, error) {
	var job SavedJob
	var company, requirements, level sql.NullString
	if err := row.Scan(&job.ID, &job.Title, &company, &job.Description, &requirements, &level, &job.CreatedAt); err != nil {
		return SavedJob{}, err
	}
	job.Company = company.String
	job.Requirements = requirements.String
	job.ExperienceLevel = level.String
	job.CreatedAt = job.CreatedAt.UTC()
	return job, nil
}

// DeleteJob removes a job posting.
func (r *SQLRepository) DeleteJob(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM saved_jobs WHERE id = ?`), id)
	if err != nil {
		return storageFailure("delete job", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageFailure("delete job", err)
	}
	if affected == 0 {
		return notFound("job", id)
	}
	return nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return storageFailure("ping database", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
