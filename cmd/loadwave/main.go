package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/loadwave-dev/loadwave/internal/config"
	"github.com/loadwave-dev/loadwave/internal/dashboard"
	"github.com/loadwave-dev/loadwave/internal/httpclient"
	"github.com/loadwave-dev/loadwave/internal/metrics"
	"github.com/loadwave-dev/loadwave/internal/output"
	"github.com/loadwave-dev/loadwave/internal/runner"
	"github.com/loadwave-dev/loadwave/internal/session"
	"github.com/loadwave-dev/loadwave/internal/tracing"
)

const (
	progressInterval = time.Second
	maxReadBodyBytes = 64 << 10
)

// passingStatuses are the HTTP statuses counted as passed outcomes.
var passingStatuses = map[int]bool{
	http.StatusOK:      true,
	http.StatusCreated: true,
}

type httpRequester struct {
	client     *http.Client
	builder    *httpclient.RequestBuilder
	collector  *metrics.Collector
	store      *session.Store
	requestLog *output.RequestLog
	provider   *tracing.Provider

	chainTokens bool
	bodyPath    string
}

type stderrFailureLogger struct {
	mu sync.Mutex
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	builder, err := httpclient.NewRequestBuilder(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	requestLog, err := output.OpenRequestLog(cfg.LogFileName())
	if err != nil {
		return err
	}
	defer requestLog.Close()

	client := httpclient.NewClient(cfg.Timeout)
	collector := metrics.NewCollector()
	store := session.NewStore(cfg.SessionTokenSeed)

	requester := &httpRequester{
		client:      client,
		builder:     builder,
		collector:   collector,
		store:       store,
		requestLog:  requestLog,
		provider:    provider,
		chainTokens: cfg.SendSessionToken,
		bodyPath:    cfg.SessionBodyPath,
	}

	var wrapped runner.Requester = requester
	if cfg.LogErrors {
		wrapped = runner.WithLogging(wrapped, &stderrFailureLogger{})
	}

	r := runner.New(runner.Options{
		Workers:    cfg.Workers,
		Iterations: cfg.Iterations,
		Unbounded:  cfg.Unbounded,
		RampUp:     cfg.RampUp,
		Requester:  wrapped,
	})

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.TestConfig{
			TargetURL:  cfg.APIURL,
			Method:     cfg.Method,
			Workers:    cfg.Workers,
			RampUp:     cfg.RampUp,
			Iterations: cfg.IterationLabel(),
			Timeout:    cfg.Timeout,
			ConfigFile: cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
		defer dash.Stop()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		fmt.Printf("Starting load test with ramp-up period of %s...\n", cfg.RampUp)
		fmt.Printf("Number of Workers: %d, Iteration Count: %s\n", cfg.Workers, cfg.IterationLabel())
		fmt.Printf("Logging results to: %s\n", cfg.LogFileName())
		if cfg.Unbounded {
			fmt.Println("Running indefinitely... Press Ctrl+C to stop.")
		}
		progress = output.NewProgressReporter(collector, progressInterval, os.Stdout)
		progress.Start()
		defer func() {
			progress.Stop()
			fmt.Fprintln(os.Stdout)
		}()
	}

	// Mark the actual start time so elapsed-time figures exclude setup.
	collector.Start()
	result := r.Run(ctx)
	summary := collector.Summary(result.Duration)

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, summary); err != nil {
			return err
		}
	} else if !cfg.Dashboard {
		output.PrintReport(os.Stdout, cfg, summary)
	}
	requestLog.WriteSummary(output.FormatReport(cfg, summary))

	return nil
}

// Do executes one request task: build with the current token snapshot, run
// the timed transport call, classify the outcome, apply the token-rotation
// policy, and hand the outcome to the collector. Failures are isolated: the
// returned error only marks this task as failed.
func (r *httpRequester) Do(ctx context.Context, worker int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	snapshot, _ := r.store.Read()
	req, err := r.builder.Build(ctx, snapshot)
	if err != nil {
		r.collector.RecordRequest(0, err)
		r.requestLog.LogFailedTransport(worker, err)
		return err
	}

	spanCtx, span := tracing.StartRequestSpan(ctx, r.provider.Tracer(), req.Method, worker)
	if r.provider.ShouldPropagate() {
		tracing.InjectHTTPHeaders(spanCtx, req.Header)
	}
	req = req.WithContext(spanCtx)

	start := time.Now()
	resp, err := r.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		tracing.EndSpan(span, err)
		r.collector.RecordRequest(0, err)
		r.requestLog.LogFailedTransport(worker, err)
		return err
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxReadBodyBytes))
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		tracing.EndSpan(span, readErr)
		r.collector.RecordRequest(0, readErr)
		r.requestLog.LogFailedTransport(worker, readErr)
		return readErr
	}

	var resultErr error
	if passingStatuses[resp.StatusCode] {
		r.collector.RecordRequest(latency, nil)
		r.requestLog.LogPassed(worker, latency, resp.StatusCode, string(body))
	} else {
		resultErr = &runner.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
		r.collector.RecordRequest(latency, resultErr)
		r.requestLog.LogFailedStatus(worker, latency, resp.StatusCode, string(body))
	}
	tracing.EndSpan(span, resultErr, attribute.Int("http.response.status_code", resp.StatusCode))

	// Rotation values may arrive on any completed response, passing or not.
	if r.chainTokens {
		if candidate, ok := session.ExtractRotationValue(resp.Header, body, r.bodyPath); ok {
			r.store.TryUpdate(candidate)
			r.requestLog.LogTokenUpdate(worker)
		}
	}

	return resultErr
}

func (l *stderrFailureLogger) LogFailure(worker int, err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(os.Stderr, "[loadwave] worker %d request failed: %v\n", worker, err)
}
