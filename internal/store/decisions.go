package store

import (
	"context"

	"github.com/phrazzld/adaptive-api/internal/domain"
)

// DecisionStore defines the interface for the append-only decision log.
type DecisionStore interface {
	// Create appends a decision log and sets its storage-assigned ID.
	Create(ctx context.Context, log *domain.DecisionLog) error

	// List returns up to limit logs, newest first.
	List(ctx context.Context, limit int) ([]domain.DecisionLog, error)
}
