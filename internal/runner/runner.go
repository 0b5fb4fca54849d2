package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Result captures execution summary.
type Result struct {
	Submitted int64
	Errors    int64
	Duration  time.Duration
}

// task is one scheduled request attempt. Tasks are created by the scheduler,
// consumed exactly once by a worker, and never reused.
type task struct {
	iteration int
	worker    int
}

// Runner coordinates the iteration/worker schedule with ramp-up pacing.
type Runner struct {
	opt     Options
	limiter *rate.Limiter
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{
		opt:     opt,
		limiter: opt.LimiterFactory(opt.Workers, opt.RampUp),
	}
}

// Run submits Workers tasks per iteration, for Iterations iterations (or
// until ctx is cancelled in unbounded mode), then waits for all outstanding
// tasks to drain. Submission order is deterministic (iteration index, then
// worker index); completion order is not.
func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()
	var submitted int64
	var errs int64

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffer of one iteration's worth keeps in-flight task handles bounded
	// in unbounded mode.
	tasks := make(chan task, r.opt.Workers)

	// Scheduler: the single goroutine driving submission, so pacing is
	// serialized and decoupled from completions.
	go func() {
		defer close(tasks)
		for iteration := 0; r.opt.Unbounded || iteration < r.opt.Iterations; iteration++ {
			for worker := 0; worker < r.opt.Workers; worker++ {
				if ctx.Err() != nil {
					return
				}
				if err := r.limiter.Wait(ctx); err != nil {
					return
				}
				select {
				case tasks <- task{iteration: iteration, worker: worker}:
					atomic.AddInt64(&submitted, 1)
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(r.opt.Workers)
	for i := 0; i < r.opt.Workers; i++ {
		go func() {
			defer wg.Done()
			for t := range tasks {
				if r.opt.Requester != nil {
					if err := r.opt.Requester.Do(ctx, t.worker); err != nil {
						atomic.AddInt64(&errs, 1)
					}
				}
			}
		}()
	}
	wg.Wait()

	return Result{
		Submitted: atomic.LoadInt64(&submitted),
		Errors:    atomic.LoadInt64(&errs),
		Duration:  time.Since(start),
	}
}
