package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Pool runs tasks from a Source on a fixed set of goroutines.
type Pool struct {
	source  Source
	workers int
	onError func(Task, error)
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	start  sync.Once
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers sets the number of goroutines. Values below one are ignored.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithErrorHandler reports failed and panicking tasks to fn instead of the
// pool's own error log. fn is called from worker goroutines.
func WithErrorHandler(fn func(Task, error)) PoolOption {
	return func(p *Pool) {
		p.onError = fn
	}
}

// NewPool creates a pool reading from source. It runs one worker unless
// WithWorkers says otherwise.
func NewPool(source Source, logger *slog.Logger, opts ...PoolOption) *Pool {
	if source == nil {
		panic("task source cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		source:  source,
		workers: 1,
		logger:  logger.With(slog.String("component", "task_pool")),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers. Later calls do nothing.
func (p *Pool) Start() {
	p.start.Do(func() {
		p.logger.Info("starting task pool", slog.Int("workers", p.workers))
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.run(i)
		}
	})
}

// Shutdown waits for the workers to finish what is left in a closed source.
// If ctx ends first, running tasks see their context cancelled, tasks still
// buffered are abandoned and ctx.Err() is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("task pool drained")
		return nil
	case <-ctx.Done():
		p.logger.Warn("task pool drain interrupted", slog.String("error", ctx.Err().Error()))
		p.cancel()
		<-done
		return ctx.Err()
	}
}

func (p *Pool) run(worker int) {
	defer p.wg.Done()

	tasks := p.source.Tasks()
	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-tasks:
			if !ok || p.ctx.Err() != nil {
				return
			}
			p.handle(worker, t)
		}
	}
}

func (p *Pool) handle(worker int, t Task) {
	started := time.Now()
	err := p.execute(t)

	log := p.logger.With(
		slog.Int("worker", worker),
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()),
		slog.Duration("duration", time.Since(started)))

	switch {
	case err == nil:
		log.Debug("task finished")
	case p.onError != nil:
		p.onError(t, err)
	default:
		log.Error("task failed", slog.String("error", err.Error()))
	}
}

func (p *Pool) execute(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", t.ID(), r)
		}
	}()
	return t.Execute(p.ctx)
}
