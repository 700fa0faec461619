package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/phrazzld/adaptive-api/internal/api"
	"github.com/phrazzld/adaptive-api/internal/config"
	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/domain/adaptive"
	"github.com/spf13/cobra"
)

// evaluateOptions describes one offline engine run.
type evaluateOptions struct {
	UserID            string
	CurrentDifficulty int
	XP                int
	Level             int
}

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the difficulty engine over a JSON attempt history",
		Long: "evaluate reads a JSON array of attempts, oldest first, from --file or stdin.\n" +
			"Each attempt may carry correct, timeSpent and difficulty; missing values are defaulted.\n" +
			"Engine thresholds come from the adaptive section of --config or ADAPTIVE_CONFIG_FILE.\n" +
			"The decision is printed as JSON. No database is needed.",
		Args: cobra.NoArgs,
		RunE: runEvaluate,
	}
	cmd.Flags().Int("current", domain.MinDifficulty, "Current difficulty level")
	cmd.Flags().StringP("file", "f", "", "Attempt history file (default stdin)")
	cmd.Flags().String("user", "offline", "User ID reported in the decision")
	cmd.Flags().Int("xp", 0, "User experience points")
	cmd.Flags().Int("level", 1, "User level")
	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	opts := evaluateOptions{}
	opts.CurrentDifficulty, _ = cmd.Flags().GetInt("current")
	opts.UserID, _ = cmd.Flags().GetString("user")
	opts.XP, _ = cmd.Flags().GetInt("xp")
	opts.Level, _ = cmd.Flags().GetInt("level")

	in := cmd.InOrStdin()
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	path, _ := cmd.Flags().GetString("config")
	ac, err := config.LoadAdaptive(path)
	if err != nil {
		return fmt.Errorf("failed to load engine configuration: %w", err)
	}
	engine := adaptive.NewServiceWithParams(adaptive.NewParams(ac.ToParamsConfig()))

	return evaluate(in, cmd.OutOrStdout(), opts, engine, time.Now().UTC())
}

// evaluate decodes attempts from r, runs engine and writes the decision to w
// in the same shape the HTTP API returns.
func evaluate(r io.Reader, w io.Writer, opts evaluateOptions, engine adaptive.Service, now time.Time) error {
	var inputs []domain.AttemptInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode attempts: %w", err)
	}

	stats := domain.DefaultUserStats()
	stats.XP = opts.XP
	stats.Level = opts.Level

	decision, err := engine.CalculateNextDifficulty(
		opts.UserID,
		stats,
		domain.NormalizeAll(inputs),
		opts.CurrentDifficulty,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to evaluate history: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(api.NewNextDifficultyResponse(decision))
}
