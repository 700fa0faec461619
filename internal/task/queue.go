package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// QueueStats is a point-in-time view of a Queue.
type QueueStats struct {
	Pending  int
	Capacity int
	Accepted int64
	Rejected int64
}

// Queue is a bounded, non-blocking task buffer. It is both the Sink the
// recorder submits to and the Source the Pool drains.
type Queue struct {
	// Submit holds the read lock while sending; Close takes the write lock,
	// so no send can race the channel close.
	mu     sync.RWMutex
	ch     chan Task
	closed bool

	accepted atomic.Int64
	rejected atomic.Int64

	logger *slog.Logger
}

var (
	_ Sink   = (*Queue)(nil)
	_ Source = (*Queue)(nil)
)

// NewQueue creates a queue holding at most capacity tasks.
func NewQueue(capacity int, logger *slog.Logger) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		ch:     make(chan Task, capacity),
		logger: logger.With(slog.String("component", "task_queue")),
	}
}

// Submit buffers t or fails immediately with ErrQueueFull or ErrQueueClosed.
func (q *Queue) Submit(t Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.rejected.Add(1)
		return ErrQueueClosed
	}

	select {
	case q.ch <- t:
		q.accepted.Add(1)
		return nil
	default:
		q.rejected.Add(1)
		q.logger.Warn("task rejected, queue full",
			slog.String("task_type", t.Type()),
			slog.Int("capacity", cap(q.ch)))
		return fmt.Errorf("%w: capacity %d", ErrQueueFull, cap(q.ch))
	}
}

// Tasks returns the channel workers read from.
func (q *Queue) Tasks() <-chan Task {
	return q.ch
}

// Close stops accepting tasks. Buffered tasks remain readable until drained.
// Calling Close more than once is a no-op.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
	q.logger.Info("task queue closed", slog.Int("pending", len(q.ch)))
}

// Stats reports the queue depth and lifetime counters.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Pending:  len(q.ch),
		Capacity: cap(q.ch),
		Accepted: q.accepted.Load(),
		Rejected: q.rejected.Load(),
	}
}
