package task

import (
	"context"

	"github.com/google/uuid"
)

// TypeDecisionLog marks tasks that persist one adaptive decision.
const TypeDecisionLog = "decision_log"

// Task is one unit of background work run by a Pool.
type Task interface {
	ID() uuid.UUID
	Type() string
	Execute(ctx context.Context) error
}

// Source hands tasks to a Pool. The channel is closed once no more tasks
// will arrive.
type Source interface {
	Tasks() <-chan Task
}

// Sink accepts tasks for background execution without blocking.
type Sink interface {
	Submit(t Task) error
}
