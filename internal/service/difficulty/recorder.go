package difficulty

import (
	"context"
	"time"

	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/store"
)

// DecisionRecorder persists decision logs for later training.
type DecisionRecorder interface {
	Record(ctx context.Context, entry domain.DecisionLog) error
}

// DefaultWriteTimeout bounds a synchronous decision log write.
const DefaultWriteTimeout = 5 * time.Second

// StoreRecorder writes decision logs inline. The write gets its own timeout
// and ignores cancellation of the request context.
type StoreRecorder struct {
	decisions store.DecisionStore
	timeout   time.Duration
}

// NewStoreRecorder creates a synchronous recorder.
func NewStoreRecorder(decisions store.DecisionStore, timeout time.Duration) *StoreRecorder {
	if decisions == nil {
		panic("decision store cannot be nil")
	}
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return &StoreRecorder{
		decisions: decisions,
		timeout:   timeout,
	}
}

// Record implements DecisionRecorder.
func (r *StoreRecorder) Record(ctx context.Context, entry domain.DecisionLog) error {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	return r.decisions.Create(writeCtx, &entry)
}
