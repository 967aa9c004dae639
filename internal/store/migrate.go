package store

import (
	"context"
	"database/sql"
	"embed"
	"sync"

	"resumefit/internal/errors"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// goose keeps its base FS and dialect in package state
var migrateMu sync.Mutex

// Migrate applies the embedded SQL migrations. A nil database is a no-op.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	if db == nil {
		return nil
	}
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "Unsupported migration dialect", err).
			WithContext("dialect", string(dialect))
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return errors.NewStorageError(errors.ErrCodeStorageFailed, "Failed to apply migrations", err)
	}
	return nil
}

// MigrationVersion reports the applied schema version
func MigrationVersion(ctx context.Context, db *sql.DB, dialect Dialect) (int64, error) {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return 0, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Unsupported migration dialect", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, errors.NewStorageError(errors.ErrCodeStorageFailed, "Failed to read schema version", err)
	}
	return version, nil
}
