package runner_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/loadwave-dev/loadwave/internal/runner"
)

type recordingLogger struct {
	mu       sync.Mutex
	failures []struct {
		worker int
		err    error
	}
}

func (l *recordingLogger) LogFailure(worker int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = append(l.failures, struct {
		worker int
		err    error
	}{worker, err})
}

type errRequester struct{ err error }

func (e *errRequester) Do(ctx context.Context, worker int) error { return e.err }

func TestHTTPErrorMessage(t *testing.T) {
	err := &runner.HTTPError{StatusCode: 404, Body: "not found"}
	if got, want := err.Error(), "HTTP 404: not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWithLoggingPassesErrorThrough(t *testing.T) {
	boom := errors.New("boom")
	logger := &recordingLogger{}
	wrapped := runner.WithLogging(&errRequester{err: boom}, logger)

	if err := wrapped.Do(context.Background(), 2); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error passed through, got %v", err)
	}
	if len(logger.failures) != 1 {
		t.Fatalf("expected 1 logged failure, got %d", len(logger.failures))
	}
	if logger.failures[0].worker != 2 {
		t.Errorf("logged worker = %d, want 2", logger.failures[0].worker)
	}
}

func TestWithLoggingSkipsSuccesses(t *testing.T) {
	logger := &recordingLogger{}
	wrapped := runner.WithLogging(&errRequester{}, logger)

	if err := wrapped.Do(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logger.failures) != 0 {
		t.Fatalf("expected no logged failures, got %d", len(logger.failures))
	}
}

func TestWithLoggingNilLoggerReturnsOriginal(t *testing.T) {
	req := &errRequester{}
	if got := runner.WithLogging(req, nil); got != runner.Requester(req) {
		t.Fatal("expected nil logger to return the original requester")
	}
}
