package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/export"
	"github.com/phrazzld/adaptive-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

// defaultExportLimit caps the number of decision logs exported per run.
const defaultExportLimit = 10000

// decisionLister is the part of store.DecisionStore the export needs.
type decisionLister interface {
	List(ctx context.Context, limit int) ([]domain.DecisionLog, error)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export decision logs as an XLSX training dataset",
		RunE:  runExport,
	}
	cmd.Flags().StringP("out", "o", "", "Path of the XLSX file to write")
	cmd.Flags().Int("limit", defaultExportLimit, "Maximum number of decision logs, newest first")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 1 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}

	cfg, err := loadAppConfig(cmd)
	if err != nil {
		return err
	}
	log, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}

	n, err := exportDecisions(cmd.Context(), postgres.NewPostgresDecisionStore(db, log), f, limit)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close %s: %w", out, closeErr)
	}
	if err != nil {
		return err
	}

	log.Info("decision logs exported", slog.String("path", out), slog.Int("rows", n))
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d decision logs to %s\n", n, out)
	return nil
}

// exportDecisions writes up to limit decision logs to w and returns how many were written.
func exportDecisions(ctx context.Context, decisions decisionLister, w io.Writer, limit int) (int, error) {
	if decisions == nil {
		return 0, errors.New("decision store is required")
	}

	logs, err := decisions.List(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list decision logs: %w", err)
	}

	if err := export.WriteDecisionLogs(w, logs); err != nil {
		return 0, err
	}
	return len(logs), nil
}
