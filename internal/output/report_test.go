package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/loadwave-dev/loadwave/internal/config"
	"github.com/loadwave-dev/loadwave/internal/metrics"
	"github.com/loadwave-dev/loadwave/internal/output"
)

func sampleConfig() *config.Config {
	return &config.Config{
		APIURL:     "https://example.test/api",
		Method:     "GET",
		Workers:    4,
		RampUp:     2 * time.Second,
		Iterations: 3,
	}
}

func sampleSummary() metrics.Summary {
	return metrics.Summary{
		Total:           12,
		Passed:          12,
		ErrorPercentage: 0,
		HasLatency:      true,
		MinLatencyMs:    50,
		MaxLatencyMs:    50,
		MeanLatencyMs:   50,
		Throughput:      20,
	}
}

// TestFormatReportFieldOrder locks the report layout: configuration echo
// first, then counters, then latency, then throughput.
func TestFormatReportFieldOrder(t *testing.T) {
	report := output.FormatReport(sampleConfig(), sampleSummary())

	fields := []string{
		"--- Load Test Results ---",
		"API URL: https://example.test/api",
		"HTTP Method: GET",
		"Number of Workers: 4",
		"Ramp-Up Period: 2s",
		"Iteration Count: 3",
		"Total Executions: 12",
		"Passed: 12",
		"Failed: 0",
		"Error Percentage: 0.00%",
		"Min Execution Time: 50.00 ms",
		"Max Execution Time: 50.00 ms",
		"Average Execution Time: 50.00 ms",
		"Throughput: 20.00 requests/second",
	}

	last := -1
	for _, field := range fields {
		idx := strings.Index(report, field)
		if idx == -1 {
			t.Fatalf("report missing %q:\n%s", field, report)
		}
		if idx < last {
			t.Fatalf("field %q out of order:\n%s", field, report)
		}
		last = idx
	}
}

// TestFormatReportNoLatency ensures undefined latency renders as N/A, never
// as a zero measurement.
func TestFormatReportNoLatency(t *testing.T) {
	summary := metrics.Summary{
		Total:           3,
		Failed:          3,
		ErrorPercentage: 100,
	}
	report := output.FormatReport(sampleConfig(), summary)

	for _, field := range []string{
		"Min Execution Time: N/A",
		"Max Execution Time: N/A",
		"Average Execution Time: N/A",
		"Throughput: 0.00 requests/second",
	} {
		if !strings.Contains(report, field) {
			t.Errorf("report missing %q:\n%s", field, report)
		}
	}
	if strings.Contains(report, "0.00 ms") {
		t.Errorf("undefined latency rendered as zero:\n%s", report)
	}
}

func TestFormatReportUnboundedLabel(t *testing.T) {
	cfg := sampleConfig()
	cfg.Unbounded = true
	report := output.FormatReport(cfg, sampleSummary())
	if !strings.Contains(report, "Iteration Count: inf") {
		t.Errorf("report missing unbounded label:\n%s", report)
	}
}

func TestFormatReportErrorBreakdownSorted(t *testing.T) {
	summary := sampleSummary()
	summary.Failed = 8
	summary.Errors = map[string]int{
		"*runner.HTTPError": 5,
		"*url.Error":        3,
	}
	report := output.FormatReport(sampleConfig(), summary)

	if !strings.Contains(report, "Error Breakdown:") {
		t.Fatalf("report missing breakdown:\n%s", report)
	}
	httpIdx := strings.Index(report, "HTTP error response: 5")
	urlIdx := strings.Index(report, "Request URL error: 3")
	if httpIdx == -1 || urlIdx == -1 {
		t.Fatalf("breakdown entries missing:\n%s", report)
	}
	if httpIdx > urlIdx {
		t.Errorf("breakdown not sorted by count:\n%s", report)
	}
}

func TestPrintJSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := output.PrintJSONReport(&buf, sampleSummary()); err != nil {
		t.Fatalf("PrintJSONReport: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["total"] != float64(12) {
		t.Errorf("total = %v, want 12", decoded["total"])
	}
	if decoded["throughput_rps"] != float64(20) {
		t.Errorf("throughput_rps = %v, want 20", decoded["throughput_rps"])
	}
}
