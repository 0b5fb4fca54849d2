package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "loadwave",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Core request flags
	flags.String("target", "", "Target URL to load test")
	flags.String("method", "GET", "HTTP method to use (GET, POST, PUT, PATCH, DELETE)")
	flags.StringToString("header", nil, "Additional request header in key=value form")

	// Load control flags
	flags.IntP("workers", "w", 1, "Number of concurrent workers started per iteration")
	flags.Duration("ramp-up", 0, "Window over which one iteration's workers are started (e.g. 1s, 500ms)")
	flags.StringP("iterations", "n", "1", "Number of iterations, or 'inf' to run until interrupted")
	flags.Duration("timeout", 30*time.Second, "Per-request timeout")

	// Payload flags
	flags.Bool("send-params", false, "Attach query parameters (GET only)")
	flags.Bool("send-body", false, "Attach the JSON body to every request")
	flags.StringToString("param", nil, "Query parameter in key=value form (repeatable)")
	flags.String("body", "", "Inline JSON object used as the request body")
	flags.Bool("send-bearer", false, "Include an Authorization: Bearer header")
	flags.String("bearer-token", "", "Bearer token value")
	flags.Bool("send-session-token", false, "Chain the rotating session token across requests")
	flags.String("session-token-seed", "", "Initial session token value")
	flags.String("session-body-path", "", "JSON path used to extract the rotation value from response bodies")
	flags.Bool("send-origin", false, "Include an Origin header")
	flags.String("origin", "", "Origin header value")

	// Output flags
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.Bool("log-errors", false, "Log each failed request to stderr")
	flags.String("log-file", "", "Request log path (default threads_<workers>_loop_<iterations>.log)")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing flags
	flags.String("otel-endpoint", "", "OTLP endpoint for request tracing (empty disables tracing)")
	flags.String("otel-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.String("otel-service-name", "", "Service name reported on spans")
	flags.Float64("otel-sample-rate", 1.0, "Trace sampling ratio between 0.0 and 1.0")
	flags.Bool("otel-propagate", false, "Inject W3C traceparent headers into requests")
	flags.Bool("otel-insecure", false, "Disable TLS for the OTLP exporter")
}

func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "loadwave - concurrent HTTP load-generation driver")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  loadwave --target <url> [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Flags:")
	fmt.Fprintln(out, cmd.Flags().FlagUsages())
	fmt.Fprintln(out, "Examples:")
	fmt.Fprintln(out, "  loadwave --target https://example.com/api/users -w 10 --ramp-up 1s -n 5")
	fmt.Fprintln(out, "  loadwave --target https://example.com/api/login --method POST --send-body --body '{\"user\":\"a\"}' -n inf")
	fmt.Fprintln(out, "  loadwave --config run.yaml --dashboard")
}
