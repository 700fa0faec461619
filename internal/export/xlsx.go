package export

import (
	"fmt"
	"io"
	"time"

	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet that holds the dataset.
const SheetName = "decisions"

// Headers is the first row of the dataset, one column per feature or label.
var Headers = []interface{}{
	"id", "user_id", "learning_language", "exercise_type",
	"current_difficulty", "next_difficulty", "mastery_score",
	"consistency_adjustment", "error_rate_adjustment", "speed_adjustment",
	"avg_time_spent", "last_correct", "error_rate",
	"model_used", "model_prediction", "reason", "decided_at",
}

// WriteDecisionLogs streams logs into a single-sheet workbook and writes it to w.
// Absent features are left as empty cells.
func WriteDecisionLogs(w io.Writer, logs []domain.DecisionLog) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	if err := sw.SetRow("A1", Headers); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, l := range logs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, decisionRow(l)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func decisionRow(l domain.DecisionLog) []interface{} {
	return []interface{}{
		l.ID,
		sanitizeForExcel(l.UserID),
		sanitizeForExcel(l.LearningLanguage),
		sanitizeForExcel(l.ExerciseType),
		l.CurrentDifficulty,
		l.NextDifficulty,
		l.MasteryScore,
		l.Adjustments.Consistency,
		l.Adjustments.ErrorRate,
		l.Adjustments.Speed,
		optionalFloat(l.AvgTimeSpent),
		optionalBool(l.LastCorrect),
		optionalFloat(l.ErrorRate),
		boolToInt(l.ModelUsed),
		optionalInt(l.ModelPrediction),
		sanitizeForExcel(l.Reason),
		l.Timestamp.UTC().Format(time.RFC3339),
	}
}

// sanitizeForExcel neutralises values that spreadsheet applications would
// evaluate as formulas.
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

func optionalFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optionalInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optionalBool(v *bool) interface{} {
	if v == nil {
		return ""
	}
	return boolToInt(*v)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
