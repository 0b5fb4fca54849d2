package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector records per-request outcomes in a thread-safe manner. Outcomes
// arrive from all workers in arbitrary completion order; the collector only
// ever appends, so a mid-run Summary is a valid partial snapshot.
type Collector struct {
	mu           sync.Mutex
	hist         *hdrhistogram.Histogram
	passed       int64
	failed       int64
	minLatency   time.Duration
	maxLatency   time.Duration
	sumLatency   time.Duration
	errorsByType map[string]int64
	start        time.Time
}

// Summary represents the aggregate over all outcomes recorded so far.
type Summary struct {
	Total           int64   `json:"total"`
	Passed          int64   `json:"passed"`
	Failed          int64   `json:"failed"`
	ErrorPercentage float64 `json:"error_percentage"`

	// Latency stats cover passed requests only. HasLatency is false when
	// nothing passed: min/max/mean are then undefined, not zero.
	HasLatency  bool          `json:"has_latency"`
	MinLatency  time.Duration `json:"-"`
	MaxLatency  time.Duration `json:"-"`
	MeanLatency time.Duration `json:"-"`

	// Throughput is total requests per second of cumulative passed-request
	// latency, not wall-clock duration.
	Throughput float64       `json:"throughput_rps"`
	Duration   time.Duration `json:"-"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms"`
	DurationMs    float64 `json:"duration_ms"`

	Errors map[string]int `json:"errors,omitempty"`
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:         h,
		errorsByType: make(map[string]int64),
		start:        time.Now(),
	}
}

// Start marks the beginning of the run for elapsed-time bookkeeping.
func (c *Collector) Start() {
	c.mu.Lock()
	c.start = time.Now()
	c.mu.Unlock()
}

// Elapsed returns the wall-clock time since Start.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

// RecordRequest records a single outcome. A nil err counts the request as
// passed and folds latency into the aggregates; a non-nil err counts it as
// failed and records nothing about latency (transport failures carry none,
// and non-passing statuses keep their latency out of the passed sequence).
func (c *Collector) RecordRequest(latency time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.failed++
		errorType := fmt.Sprintf("%T", err)
		if len(errorType) > 30 {
			errorType = errorType[len(errorType)-30:]
		}
		c.errorsByType[errorType]++
		return
	}

	c.passed++
	c.sumLatency += latency
	if c.passed == 1 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}

	us := latency.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)
}

// LatencyQuantile returns the latency at quantile q (0-100) over passed
// requests, for live display. Returns 0 when nothing has been recorded.
func (c *Collector) LatencyQuantile(q float64) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hist.TotalCount() == 0 {
		return 0
	}
	return time.Duration(c.hist.ValueAtQuantile(q)) * time.Microsecond
}

// Summary computes the aggregate statistics over everything recorded so far.
func (c *Collector) Summary(elapsed time.Duration) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.passed + c.failed
	summary := Summary{
		Total:  total,
		Passed: c.passed,
		Failed: c.failed,
	}

	if total > 0 {
		summary.ErrorPercentage = float64(c.failed) / float64(total) * 100
	}

	if c.passed > 0 {
		summary.HasLatency = true
		summary.MinLatency = c.minLatency
		summary.MaxLatency = c.maxLatency
		summary.MeanLatency = time.Duration(int64(c.sumLatency) / c.passed)
		summary.MinLatencyMs = float64(summary.MinLatency) / float64(time.Millisecond)
		summary.MaxLatencyMs = float64(summary.MaxLatency) / float64(time.Millisecond)
		summary.MeanLatencyMs = float64(summary.MeanLatency) / float64(time.Millisecond)
	}

	if seconds := c.sumLatency.Seconds(); seconds > 0 {
		summary.Throughput = float64(total) / seconds
	}

	summary.Duration = elapsed
	summary.DurationMs = float64(elapsed) / float64(time.Millisecond)

	if len(c.errorsByType) > 0 {
		summary.Errors = make(map[string]int, len(c.errorsByType))
		for k, v := range c.errorsByType {
			summary.Errors[k] = int(v)
		}
	}

	return summary
}

// GetErrorBreakdown returns a map of error types to their counts.
func (c *Collector) GetErrorBreakdown() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]int)
	for k, v := range c.errorsByType {
		result[k] = int(v)
	}
	return result
}
