package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const (
	// MigrationTableName is the goose bookkeeping table.
	MigrationTableName = "schema_migrations"

	migrationsDir = "migrations"
)

// Supported migration commands.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateReset   = "reset"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

// ErrUnknownMigrationCommand is returned for commands goose is not asked to run.
var ErrUnknownMigrationCommand = errors.New("unknown migration command")

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf forwards goose progress output at info level.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf forwards goose failures at error level.
// It does NOT exit; goose still returns the error to the caller.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// Migrator applies the embedded schema migrations.
type Migrator struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMigrator creates a Migrator for db.
// If logger is nil, a default logger will be used.
func NewMigrator(db *sql.DB, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{
		db:     db,
		logger: logger.With(slog.String("component", "migrations")),
	}
}

// MigrationFiles lists the embedded migration file names in apply order.
func MigrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(embedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Run executes one goose command against the embedded migrations.
func (m *Migrator) Run(ctx context.Context, command string) error {
	switch command {
	case MigrateUp, MigrateDown, MigrateReset, MigrateStatus, MigrateVersion:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMigrationCommand, command)
	}
	if m.db == nil {
		return errors.New("migrator has no database")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(&slogGooseLogger{logger: m.logger})
	goose.SetBaseFS(embedMigrations)
	goose.SetTableName(MigrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	m.logger.Info("running migration command", slog.String("command", command))

	var err error
	switch command {
	case MigrateUp:
		err = goose.UpContext(ctx, m.db, migrationsDir)
	case MigrateDown:
		err = goose.DownContext(ctx, m.db, migrationsDir)
	case MigrateReset:
		err = goose.ResetContext(ctx, m.db, migrationsDir)
	case MigrateStatus:
		err = goose.StatusContext(ctx, m.db, migrationsDir)
	case MigrateVersion:
		err = goose.VersionContext(ctx, m.db, migrationsDir)
	}
	if err != nil {
		m.logger.Error("migration command failed",
			slog.String("command", command),
			slog.String("error", err.Error()))
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}
