package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Requester abstracts executing a single request task. worker is the index of
// the submission slot within its iteration (0..Workers-1), stable across
// iterations so log lines can attribute work to a simulated client.
// Implementations should return an error for failed requests.
type Requester interface {
	Do(ctx context.Context, worker int) error
}

// Options configure the Runner.
type Options struct {
	Workers    int           // simulated clients per iteration, also the worker-pool size
	Iterations int           // iterations to run (ignored when Unbounded)
	Unbounded  bool          // run until the context is cancelled
	RampUp     time.Duration // window over which one iteration's submissions are spread
	Requester  Requester     // request executor (required)

	// LimiterFactory builds the pacing limiter; injectable for tests.
	LimiterFactory func(workers int, rampUp time.Duration) *rate.Limiter
}

func (o *Options) normalize() {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if !o.Unbounded && o.Iterations <= 0 {
		o.Iterations = 1
	}
	if o.RampUp < 0 {
		o.RampUp = 0
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(workers int, rampUp time.Duration) *rate.Limiter {
			if workers <= 1 || rampUp <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// One submission every rampUp/workers, no bursting, so an
			// iteration's submissions span the whole ramp-up window.
			return rate.NewLimiter(rate.Every(rampUp/time.Duration(workers)), 1)
		}
	}
}
