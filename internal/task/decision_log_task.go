package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/store"
)

// DefaultDecisionLogTimeout bounds a single decision log write.
const DefaultDecisionLogTimeout = 5 * time.Second

// DecisionLogTask writes one decision log entry to the decision store.
type DecisionLogTask struct {
	id      uuid.UUID
	entry   domain.DecisionLog
	store   store.DecisionStore
	timeout time.Duration
	logger  *slog.Logger
}

// NewDecisionLogTask creates a task for entry. A non-positive timeout falls
// back to DefaultDecisionLogTimeout.
func NewDecisionLogTask(
	entry domain.DecisionLog,
	decisions store.DecisionStore,
	timeout time.Duration,
	logger *slog.Logger,
) (*DecisionLogTask, error) {
	if decisions == nil {
		return nil, fmt.Errorf("decision store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultDecisionLogTimeout
	}

	return &DecisionLogTask{
		id:      uuid.New(),
		entry:   entry,
		store:   decisions,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// ID implements Task.
func (t *DecisionLogTask) ID() uuid.UUID {
	return t.id
}

// Type implements Task.
func (t *DecisionLogTask) Type() string {
	return TypeDecisionLog
}

// Execute persists the entry within the task timeout.
func (t *DecisionLogTask) Execute(ctx context.Context) error {
	writeCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	entry := t.entry
	if err := t.store.Create(writeCtx, &entry); err != nil {
		return fmt.Errorf("failed to write decision log for user %s: %w", entry.UserID, err)
	}

	t.logger.Debug("decision log written",
		slog.String("task_id", t.id.String()),
		slog.Int64("log_id", entry.ID),
		slog.String("user_id", entry.UserID))
	return nil
}
