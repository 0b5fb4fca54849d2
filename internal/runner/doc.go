// Package runner provides the core load-generation engine for loadwave.
//
// The runner schedules exactly Workers request tasks per iteration, for a
// fixed or unbounded number of iterations, spreading each iteration's
// submissions evenly across the configured ramp-up window. A single
// scheduler goroutine drives submission; a fixed pool of Workers goroutines
// executes tasks concurrently. Submission and completion are decoupled: the
// ramp-up delay applies between successive submissions, never between
// completions.
//
// # Basic Usage
//
// Create a runner with options and a requester implementation:
//
//	opts := runner.Options{
//		Workers:    10,
//		Iterations: 5,
//		RampUp:     time.Second,
//		Requester:  myRequester,
//	}
//	r := runner.New(opts)
//	result := r.Run(ctx)
//
// In unbounded mode (Unbounded=true) Run returns only when ctx is cancelled;
// cancellation takes effect at submission granularity and in-flight requests
// are allowed to complete or time out.
//
// # Requester Interface
//
// The [Requester] interface defines what a runner executes:
//
//	type Requester interface {
//		Do(ctx context.Context, worker int) error
//	}
//
// # Middleware
//
// [WithLogging] wraps a Requester to report failures without affecting them.
//
// # Error Handling
//
// The [HTTPError] type classifies completed requests with a non-passing
// status:
//
//	if httpErr, ok := err.(*runner.HTTPError); ok {
//		fmt.Printf("Status: %d, Body: %s\n", httpErr.StatusCode, httpErr.Body)
//	}
package runner
