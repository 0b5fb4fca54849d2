// Package metrics provides outcome collection and aggregation for load runs.
//
// The central [Collector] type accumulates per-request outcomes from all
// workers:
//
//	collector := metrics.NewCollector()
//	collector.Start() // mark run start for elapsed-time bookkeeping
//
//	// Record an outcome (nil error = passed)
//	collector.RecordRequest(latency, err)
//
//	// Aggregate statistics; valid mid-run as a partial snapshot
//	summary := collector.Summary(elapsed)
//
// # Statistics
//
// [Summary] carries totals, passed/failed counts, error percentage, min/max/
// mean latency over passed requests (undefined rather than zero when nothing
// passed), and throughput defined as total requests per second of cumulative
// passed-request latency.
//
// An HdrHistogram backs [Collector.LatencyQuantile] for live display and
// keeps latency memory bounded in unbounded runs; quantiles are never part
// of the Summary.
//
// # Thread Safety
//
// RecordRequest is safe to call from any number of workers; outcomes may
// arrive in arbitrary completion order.
package metrics
