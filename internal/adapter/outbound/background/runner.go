package background

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jonny/sheetbot/internal/domain/model"
)

var ErrShutdownTimeout = errors.New("background tasks still running at shutdown deadline")

// Runner executes tasks released after their HTTP response was flushed.
// Tasks are not tied to the request context and run to completion.
// Go never blocks the caller; the limit is enforced inside the task goroutine.
type Runner struct {
	mu     sync.Mutex
	closed bool
	group  errgroup.Group
	sem    *semaphore.Weighted
	base   context.Context
	logger *slog.Logger
}

// NewRunner bounds concurrent tasks by limit; limit <= 0 means unbounded.
func NewRunner(limit int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{base: context.Background(), logger: logger}
	if limit > 0 {
		r.sem = semaphore.NewWeighted(int64(limit))
	}
	return r
}

// Go schedules task. Tasks scheduled after Shutdown are dropped.
func (r *Runner) Go(task model.BackgroundTask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Warn("background task dropped: runner is shutting down")
		return
	}

	// The group has no limit, so this only registers the goroutine.
	r.group.Go(func() error {
		if r.sem != nil {
			if err := r.sem.Acquire(r.base, 1); err != nil {
				return err
			}
			defer r.sem.Release(1)
		}
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("background task panicked", "panic", rec)
			}
		}()
		task(r.base)
		return nil
	})
}

// Shutdown stops accepting tasks and waits for running and queued ones until
// ctx is done.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = r.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrShutdownTimeout
	}
}
