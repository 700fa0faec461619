package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/store"
)

// QueueRecorder records decision logs by submitting a DecisionLogTask per
// entry. Record never waits on the database.
type QueueRecorder struct {
	sink         Sink
	decisions    store.DecisionStore
	writeTimeout time.Duration
	logger       *slog.Logger
}

// NewQueueRecorder creates a recorder that feeds sink.
func NewQueueRecorder(
	sink Sink,
	decisions store.DecisionStore,
	writeTimeout time.Duration,
	logger *slog.Logger,
) *QueueRecorder {
	if sink == nil {
		panic("task sink cannot be nil")
	}
	if decisions == nil {
		panic("decision store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueRecorder{
		sink:         sink,
		decisions:    decisions,
		writeTimeout: writeTimeout,
		logger:       logger.With(slog.String("component", "decision_recorder")),
	}
}

// Record submits entry for a background write. It fails with ErrQueueFull
// or ErrQueueClosed when the entry cannot be accepted.
func (r *QueueRecorder) Record(ctx context.Context, entry domain.DecisionLog) error {
	t, err := NewDecisionLogTask(entry, r.decisions, r.writeTimeout, r.logger)
	if err != nil {
		return err
	}
	if err := r.sink.Submit(t); err != nil {
		return fmt.Errorf("failed to queue decision log: %w", err)
	}
	return nil
}
