package runner

import (
	"context"
	"fmt"
)

// HTTPError represents a completed request whose status puts it outside the
// passing set. Status and latency are still recorded by the collector; the
// error only classifies the outcome as failed for aggregate purposes.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// FailureLogger logs failed requests.
type FailureLogger interface {
	LogFailure(worker int, err error)
}

// loggingRequester wraps a Requester with failure logging.
type loggingRequester struct {
	inner  Requester
	logger FailureLogger
}

// WithLogging wraps a Requester to log failures. Failures are observed and
// passed through unchanged; one worker's failure never aborts the run.
func WithLogging(req Requester, logger FailureLogger) Requester {
	if logger == nil {
		return req
	}
	return &loggingRequester{
		inner:  req,
		logger: logger,
	}
}

func (l *loggingRequester) Do(ctx context.Context, worker int) error {
	err := l.inner.Do(ctx, worker)
	if err != nil && l.logger != nil {
		l.logger.LogFailure(worker, err)
	}
	return err
}
