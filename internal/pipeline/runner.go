package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"easyads/internal/infra"
)

// Runner executes pipeline jobs on background goroutines, bounding how many
// run at once. The context passed at construction caps the lifetime of all
// jobs; cancelling it drains the runner.
type Runner struct {
	base   context.Context
	sem    *semaphore.Weighted
	logger infra.Logger
	wg     sync.WaitGroup
}

// NewRunner builds a runner allowing at most limit concurrent jobs.
func NewRunner(ctx context.Context, limit int64, logger infra.Logger) *Runner {
	if limit < 1 {
		limit = 1
	}
	return &Runner{
		base:   ctx,
		sem:    semaphore.NewWeighted(limit),
		logger: logger,
	}
}

// Go schedules fn on a new goroutine. The goroutine blocks until a slot is
// free; if the runner's context is cancelled first, fn never runs and the
// dropped callback fires instead so the caller can settle any bookkeeping,
// such as failing the job a poller is watching.
func (r *Runner) Go(fn func(ctx context.Context), dropped func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		// Acquire can succeed on a done context when a slot is free, so
		// check liveness explicitly first.
		if err := r.base.Err(); err != nil {
			r.drop(err, dropped)
			return
		}
		if err := r.sem.Acquire(r.base, 1); err != nil {
			r.drop(err, dropped)
			return
		}
		defer r.sem.Release(1)
		fn(r.base)
	}()
}

func (r *Runner) drop(err error, dropped func()) {
	r.logger.Warn().Err(err).Msg("job dropped, runner shutting down")
	if dropped != nil {
		dropped()
	}
}

// Wait blocks until every scheduled job has finished or been dropped.
func (r *Runner) Wait() {
	r.wg.Wait()
}
