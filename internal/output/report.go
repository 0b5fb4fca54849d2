package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/loadwave-dev/loadwave/internal/config"
	"github.com/loadwave-dev/loadwave/internal/metrics"
)

// FormatReport renders the configuration echo plus the summary in a fixed
// field order. Emission is the caller's concern; the same text goes to the
// console and to the request log.
func FormatReport(cfg *config.Config, summary metrics.Summary) string {
	var b strings.Builder

	fmt.Fprintln(&b, "--- Load Test Results ---")
	fmt.Fprintf(&b, "API URL: %s\n", cfg.APIURL)
	fmt.Fprintf(&b, "HTTP Method: %s\n", cfg.Method)
	fmt.Fprintf(&b, "Number of Workers: %d\n", cfg.Workers)
	fmt.Fprintf(&b, "Ramp-Up Period: %s\n", cfg.RampUp)
	fmt.Fprintf(&b, "Iteration Count: %s\n", cfg.IterationLabel())
	fmt.Fprintf(&b, "Total Executions: %d\n", summary.Total)
	fmt.Fprintf(&b, "Passed: %d\n", summary.Passed)
	fmt.Fprintf(&b, "Failed: %d\n", summary.Failed)
	fmt.Fprintf(&b, "Error Percentage: %.2f%%\n", summary.ErrorPercentage)
	if summary.HasLatency {
		fmt.Fprintf(&b, "Min Execution Time: %.2f ms\n", summary.MinLatencyMs)
		fmt.Fprintf(&b, "Max Execution Time: %.2f ms\n", summary.MaxLatencyMs)
		fmt.Fprintf(&b, "Average Execution Time: %.2f ms\n", summary.MeanLatencyMs)
	} else {
		fmt.Fprintln(&b, "Min Execution Time: N/A")
		fmt.Fprintln(&b, "Max Execution Time: N/A")
		fmt.Fprintln(&b, "Average Execution Time: N/A")
	}
	fmt.Fprintf(&b, "Throughput: %.2f requests/second\n", summary.Throughput)

	if len(summary.Errors) > 0 {
		fmt.Fprintln(&b, "\nError Breakdown:")
		types := make([]string, 0, len(summary.Errors))
		for errType := range summary.Errors {
			types = append(types, errType)
		}
		sort.Slice(types, func(i, j int) bool {
			if summary.Errors[types[i]] != summary.Errors[types[j]] {
				return summary.Errors[types[i]] > summary.Errors[types[j]]
			}
			return types[i] < types[j]
		})
		for _, errType := range types {
			fmt.Fprintf(&b, "  %s: %d\n", metrics.FriendlyErrorName(errType), summary.Errors[errType])
		}
	}

	return b.String()
}

// PrintReport outputs the human-readable summary report.
func PrintReport(w io.Writer, cfg *config.Config, summary metrics.Summary) {
	fmt.Fprintln(w)
	fmt.Fprint(w, FormatReport(cfg, summary))
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, summary metrics.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
