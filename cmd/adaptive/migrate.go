package main

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptive-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|reset|status|version]",
		Short: "Apply or inspect database schema migrations",
		Long: "migrate runs the embedded SQL migrations against the configured database.\n" +
			"With no argument it applies all pending migrations.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateReset, postgres.MigrateStatus, postgres.MigrateVersion},
		RunE:      runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	command := postgres.MigrateUp
	if len(args) == 1 {
		command = args[0]
	}

	cfg, err := loadAppConfig(cmd)
	if err != nil {
		return err
	}

	baseLogger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	// Every migration run gets its own correlation ID so its log lines can be grouped.
	log := baseLogger.With(
		slog.String("correlation_id", uuid.New().String()),
		slog.String("migration_command", command))

	db, err := setupAppDatabase(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}()

	if err := postgres.NewMigrator(db, log).Run(cmd.Context(), command); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	log.Info("migration command completed")
	return nil
}
