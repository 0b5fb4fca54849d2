package metrics_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/loadwave-dev/loadwave/internal/metrics"
	"github.com/loadwave-dev/loadwave/internal/runner"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCollectorLatencyStats(t *testing.T) {
	c := metrics.NewCollector()

	c.RecordRequest(10*time.Millisecond, nil)
	c.RecordRequest(20*time.Millisecond, nil)
	c.RecordRequest(30*time.Millisecond, nil)

	summary := c.Summary(0)

	if summary.Total != 3 || summary.Passed != 3 || summary.Failed != 0 {
		t.Fatalf("totals = %d/%d/%d, want 3/3/0", summary.Total, summary.Passed, summary.Failed)
	}
	if !summary.HasLatency {
		t.Fatal("expected latency stats to be defined")
	}
	if summary.MinLatency != 10*time.Millisecond {
		t.Errorf("min = %s, want 10ms", summary.MinLatency)
	}
	if summary.MaxLatency != 30*time.Millisecond {
		t.Errorf("max = %s, want 30ms", summary.MaxLatency)
	}
	if summary.MeanLatency != 20*time.Millisecond {
		t.Errorf("mean = %s, want 20ms", summary.MeanLatency)
	}
	if summary.MinLatency > summary.MeanLatency || summary.MeanLatency > summary.MaxLatency {
		t.Errorf("expected min <= mean <= max, got %s/%s/%s",
			summary.MinLatency, summary.MeanLatency, summary.MaxLatency)
	}
}

// TestCollectorEmptySummary ensures an empty collector reports zero counters
// with latency undefined rather than zero, and no division by zero anywhere.
func TestCollectorEmptySummary(t *testing.T) {
	c := metrics.NewCollector()
	summary := c.Summary(time.Second)

	if summary.Total != 0 || summary.Passed != 0 || summary.Failed != 0 {
		t.Fatalf("totals = %d/%d/%d, want 0/0/0", summary.Total, summary.Passed, summary.Failed)
	}
	if summary.ErrorPercentage != 0 {
		t.Errorf("error percentage = %f, want 0", summary.ErrorPercentage)
	}
	if summary.HasLatency {
		t.Error("expected latency stats to be undefined")
	}
	if summary.Throughput != 0 {
		t.Errorf("throughput = %f, want 0", summary.Throughput)
	}
}

// TestCollectorAllFailed covers a run where every request failed in transport:
// no latency samples exist and throughput stays zero.
func TestCollectorAllFailed(t *testing.T) {
	c := metrics.NewCollector()
	for i := 0; i < 4; i++ {
		c.RecordRequest(0, errors.New("connection refused"))
	}

	summary := c.Summary(0)
	if summary.Total != 4 || summary.Failed != 4 {
		t.Fatalf("totals = %d failed %d, want 4/4", summary.Total, summary.Failed)
	}
	if !almostEqual(summary.ErrorPercentage, 100) {
		t.Errorf("error percentage = %f, want 100", summary.ErrorPercentage)
	}
	if summary.HasLatency {
		t.Error("expected no latency stats when nothing passed")
	}
	if summary.Throughput != 0 {
		t.Errorf("throughput = %f, want 0", summary.Throughput)
	}
}

// TestCollectorThroughput checks the cumulative-latency denominator: 12
// passed requests at 50ms each give 0.6s of cumulative latency and 20 rps.
func TestCollectorThroughput(t *testing.T) {
	c := metrics.NewCollector()
	for i := 0; i < 12; i++ {
		c.RecordRequest(50*time.Millisecond, nil)
	}

	summary := c.Summary(0)
	if summary.Total != 12 {
		t.Fatalf("total = %d, want 12", summary.Total)
	}
	if !almostEqual(summary.Throughput, 20) {
		t.Errorf("throughput = %f, want 20", summary.Throughput)
	}
	if !almostEqual(summary.MinLatencyMs, 50) || !almostEqual(summary.MaxLatencyMs, 50) || !almostEqual(summary.MeanLatencyMs, 50) {
		t.Errorf("latency ms = %f/%f/%f, want 50/50/50",
			summary.MinLatencyMs, summary.MaxLatencyMs, summary.MeanLatencyMs)
	}
}

// TestCollectorMixedOutcomes covers one pass and one status failure: the
// failed request contributes to totals and error percentage but not to the
// latency aggregates or the throughput denominator.
func TestCollectorMixedOutcomes(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordRequest(40*time.Millisecond, nil)
	c.RecordRequest(25*time.Millisecond, &runner.HTTPError{StatusCode: 404, Body: "missing"})

	summary := c.Summary(0)
	if summary.Total != 2 || summary.Passed != 1 || summary.Failed != 1 {
		t.Fatalf("totals = %d/%d/%d, want 2/1/1", summary.Total, summary.Passed, summary.Failed)
	}
	if !almostEqual(summary.ErrorPercentage, 50) {
		t.Errorf("error percentage = %f, want 50", summary.ErrorPercentage)
	}
	if summary.MinLatency != 40*time.Millisecond || summary.MaxLatency != 40*time.Millisecond {
		t.Errorf("min/max = %s/%s, want 40ms/40ms", summary.MinLatency, summary.MaxLatency)
	}
	// 2 total over 0.04s of passed latency.
	if !almostEqual(summary.Throughput, 50) {
		t.Errorf("throughput = %f, want 50", summary.Throughput)
	}
}

func TestCollectorErrorBreakdown(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordRequest(0, &runner.HTTPError{StatusCode: 500})
	c.RecordRequest(0, &runner.HTTPError{StatusCode: 502})
	c.RecordRequest(0, context.DeadlineExceeded)

	breakdown := c.GetErrorBreakdown()
	if len(breakdown) != 2 {
		t.Fatalf("expected 2 error types, got %d: %v", len(breakdown), breakdown)
	}
	var total int
	for _, count := range breakdown {
		total += count
	}
	if total != 3 {
		t.Fatalf("expected 3 failures across types, got %d", total)
	}

	summary := c.Summary(0)
	if len(summary.Errors) != 2 {
		t.Fatalf("summary errors = %v, want 2 types", summary.Errors)
	}
}

func TestLatencyQuantile(t *testing.T) {
	c := metrics.NewCollector()
	if q := c.LatencyQuantile(99); q != 0 {
		t.Fatalf("empty quantile = %s, want 0", q)
	}

	// 100 samples: 1ms, 2ms, ..., 100ms.
	for i := 1; i <= 100; i++ {
		c.RecordRequest(time.Duration(i)*time.Millisecond, nil)
	}

	p50 := c.LatencyQuantile(50)
	if p50 < 49*time.Millisecond || p50 > 51*time.Millisecond {
		t.Errorf("P50 = %s, want ~50ms", p50)
	}
	p99 := c.LatencyQuantile(99)
	if p99 < 98*time.Millisecond || p99 > 101*time.Millisecond {
		t.Errorf("P99 = %s, want ~99ms", p99)
	}
}

// TestCollectorConcurrentRecording ensures concurrent workers never lose an
// outcome: passed + failed always equals total.
func TestCollectorConcurrentRecording(t *testing.T) {
	c := metrics.NewCollector()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if i%4 == 0 {
					c.RecordRequest(0, errors.New("fail"))
				} else {
					c.RecordRequest(time.Millisecond, nil)
				}
			}
		}(w)
	}
	wg.Wait()

	summary := c.Summary(0)
	if summary.Total != 800 {
		t.Fatalf("total = %d, want 800", summary.Total)
	}
	if summary.Passed+summary.Failed != summary.Total {
		t.Fatalf("passed %d + failed %d != total %d", summary.Passed, summary.Failed, summary.Total)
	}
	if summary.Failed != 200 {
		t.Fatalf("failed = %d, want 200", summary.Failed)
	}
}
