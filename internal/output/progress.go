package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/loadwave-dev/loadwave/internal/metrics"
)

// ProgressReporter displays real-time progress updates. In unbounded mode it
// doubles as the incremental running summary, since no final summary is ever
// produced there.
type ProgressReporter struct {
	collector *metrics.Collector
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
	start     time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(collector *metrics.Collector, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
		start:     time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			elapsed := time.Since(p.start)
			summary := p.collector.Summary(elapsed)
			line := fmt.Sprintf("\rRequests: %d | Passed: %d | Failed: %d | Errors: %.1f%% | Throughput: %.1f req/s",
				summary.Total, summary.Passed, summary.Failed, summary.ErrorPercentage, summary.Throughput)
			if summary.HasLatency {
				line += fmt.Sprintf(" | Mean: %.1fms", summary.MeanLatencyMs)
			}
			fmt.Fprint(p.writer, line)
		case <-p.done:
			return
		}
	}
}
