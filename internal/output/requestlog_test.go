package output_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loadwave-dev/loadwave/internal/output"
)

func openLog(t *testing.T) (*output.RequestLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "threads_4_loop_3.log")
	log, err := output.OpenRequestLog(path)
	if err != nil {
		t.Fatalf("OpenRequestLog: %v", err)
	}
	return log, path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func TestRequestLogEntries(t *testing.T) {
	log, path := openLog(t)

	log.LogPassed(3, 52300*time.Microsecond, 200, `{"ok":true}`)
	log.LogFailedStatus(1, 12*time.Millisecond, 404, "not found")
	log.LogFailedTransport(0, os.ErrDeadlineExceeded)
	log.LogTokenUpdate(2)
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	contents := readLog(t, path)
	for _, want := range []string{
		"=== Run " + log.RunID() + " started ===",
		`[Worker 3] Passed - Execution Time: 52.30 ms, Status Code: 200, Response: {"ok":true}`,
		"[Worker 1] Failed - Execution Time: 12.00 ms, Status Code: 404, Response: not found",
		"[Worker 0] Failed - Error: " + os.ErrDeadlineExceeded.Error(),
		"[Worker 2] Extracted and updated session token",
	} {
		if !strings.Contains(contents, want) {
			t.Errorf("log missing %q:\n%s", want, contents)
		}
	}

	// Every entry carries a timestamp prefix.
	for _, line := range strings.Split(strings.TrimSpace(contents), "\n") {
		if _, err := time.Parse("2006-01-02 15:04:05", line[:19]); err != nil {
			t.Errorf("line without timestamp prefix: %q", line)
		}
	}
}

func TestRequestLogTruncatesBody(t *testing.T) {
	log, path := openLog(t)

	body := strings.Repeat("a", 500) + "TAIL"
	log.LogPassed(0, time.Millisecond, 200, body)
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	contents := readLog(t, path)
	if !strings.Contains(contents, strings.Repeat("a", 500)) {
		t.Error("expected first 500 characters kept")
	}
	if strings.Contains(contents, "TAIL") {
		t.Error("expected body truncated at 500 characters")
	}
}

func TestRequestLogCollapsesNewlines(t *testing.T) {
	log, path := openLog(t)

	log.LogPassed(0, time.Millisecond, 200, "line one\r\nline two\nline three")
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	contents := readLog(t, path)
	if !strings.Contains(contents, "Response: line one line two line three") {
		t.Errorf("expected one-line entry:\n%s", contents)
	}
}

func TestRequestLogSummaryBlock(t *testing.T) {
	log, path := openLog(t)

	log.WriteSummary("--- Load Test Results ---\nTotal Executions: 12\n")
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	contents := readLog(t, path)
	summaryIdx := strings.Index(contents, "--- Load Test Results ---")
	endIdx := strings.Index(contents, "------------- End -------------")
	if summaryIdx == -1 || endIdx == -1 {
		t.Fatalf("summary block missing:\n%s", contents)
	}
	if endIdx < summaryIdx {
		t.Errorf("end marker before summary:\n%s", contents)
	}
}

// TestRequestLogLockExcludesConcurrentRun ensures two runs cannot append to
// the same log file at once; the lock frees on Close.
func TestRequestLogLockExcludesConcurrentRun(t *testing.T) {
	log, path := openLog(t)

	if _, err := output.OpenRequestLog(path); err == nil {
		t.Fatal("expected second open to fail while locked")
	}

	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := output.OpenRequestLog(path)
	if err != nil {
		t.Fatalf("expected reopen after Close to succeed: %v", err)
	}
	_ = second.Close()
}

// TestRequestLogAppendsAcrossRuns ensures a new run never clobbers the
// previous run's entries.
func TestRequestLogAppendsAcrossRuns(t *testing.T) {
	log, path := openLog(t)
	log.LogPassed(0, time.Millisecond, 200, "first run")
	_ = log.Close()

	log2, err := output.OpenRequestLog(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	log2.LogPassed(0, time.Millisecond, 200, "second run")
	_ = log2.Close()

	contents := readLog(t, path)
	if !strings.Contains(contents, "first run") || !strings.Contains(contents, "second run") {
		t.Errorf("expected entries from both runs:\n%s", contents)
	}
	if log.RunID() == log2.RunID() {
		t.Error("expected distinct run ids")
	}
}
