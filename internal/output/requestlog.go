package output

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"
)

// maxLoggedBody caps the response excerpt stored per log entry.
const maxLoggedBody = 500

const logTimeLayout = "2006-01-02 15:04:05"

// RequestLog appends one timestamped entry per completed request to the run's
// log file. The file is guarded by an advisory lock so two runs configured
// with the same worker/iteration counts cannot interleave entries.
type RequestLog struct {
	mu    sync.Mutex
	file  *os.File
	lock  *flock.Flock
	runID string
}

// OpenRequestLog opens (or creates) the log file at path, acquires its lock,
// and stamps a header with a fresh run id.
func OpenRequestLog(path string) (*RequestLog, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock log file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("log file %s is in use by another run", path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := &RequestLog{
		file:  file,
		lock:  lock,
		runID: ulid.Make().String(),
	}
	l.writeLine(fmt.Sprintf("=== Run %s started ===", l.runID))
	return l, nil
}

// RunID returns the ULID assigned to this run.
func (l *RequestLog) RunID() string {
	return l.runID
}

// LogPassed records a successful request.
func (l *RequestLog) LogPassed(worker int, latency time.Duration, status int, body string) {
	l.writeLine(fmt.Sprintf("[Worker %d] Passed - Execution Time: %.2f ms, Status Code: %d, Response: %s",
		worker, float64(latency)/float64(time.Millisecond), status, excerpt(body)))
}

// LogFailedStatus records a completed request whose status classified it as
// failed. Latency and status are still available and are kept in the entry.
func (l *RequestLog) LogFailedStatus(worker int, latency time.Duration, status int, body string) {
	l.writeLine(fmt.Sprintf("[Worker %d] Failed - Execution Time: %.2f ms, Status Code: %d, Response: %s",
		worker, float64(latency)/float64(time.Millisecond), status, excerpt(body)))
}

// LogFailedTransport records a request that never produced a response.
func (l *RequestLog) LogFailedTransport(worker int, err error) {
	l.writeLine(fmt.Sprintf("[Worker %d] Failed - Error: %v", worker, err))
}

// LogTokenUpdate records a session-token rotation observed by a worker.
func (l *RequestLog) LogTokenUpdate(worker int) {
	l.writeLine(fmt.Sprintf("[Worker %d] Extracted and updated session token", worker))
}

// WriteSummary appends the final summary block.
func (l *RequestLog) WriteSummary(report string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.file, "\n%s", report)
	fmt.Fprintln(l.file, "------------- End -------------")
}

// Close releases the advisory lock and closes the file.
func (l *RequestLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	closeErr := l.file.Close()
	if err := l.lock.Unlock(); err != nil && closeErr == nil {
		closeErr = err
	}
	return closeErr
}

func (l *RequestLog) writeLine(message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.file, "%s %s\n", time.Now().Format(logTimeLayout), message)
}

// excerpt trims and truncates a response body for logging, collapsing
// newlines so one request stays one log line.
func excerpt(body string) string {
	trimmed := strings.TrimSpace(body)
	if len(trimmed) > maxLoggedBody {
		trimmed = trimmed[:maxLoggedBody]
	}
	trimmed = strings.ReplaceAll(trimmed, "\r\n", " ")
	return strings.ReplaceAll(trimmed, "\n", " ")
}
