// Package tasks provides one-shot background task dispatch for work
// that must never block a webhook response. Tasks are fire-and-forget:
// there is no cancellation and no backpressure, so a burst of triggers
// can run an unbounded number of tasks concurrently. That is an
// accepted limitation of the current design, not something this package
// papers over.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner dispatches one-shot background tasks and can be joined at
// shutdown so in-flight work gets a chance to finish.
type Runner struct {
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewRunner creates a task runner.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// Go runs fn in the background. Panics are recovered and logged; the
// caller returns immediately and never observes the task's outcome.
func (r *Runner) Go(name string, fn func(ctx context.Context)) {
	taskID := uuid.New().String()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("background task panic",
					zap.String("task", name),
					zap.String("task_id", taskID),
					zap.Any("panic", rec),
				)
			}
		}()
		start := time.Now()
		fn(context.Background())
		r.logger.Debug("background task done",
			zap.String("task", name),
			zap.String("task_id", taskID),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()
}

// Wait blocks until all dispatched tasks finish or the timeout elapses.
// Returns true when everything finished in time.
func (r *Runner) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
