// Package dashboard renders a live terminal UI over the metrics collector.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/loadwave-dev/loadwave/internal/metrics"
)

// TestConfig holds run parameters for display.
type TestConfig struct {
	TargetURL  string        // Full target URL
	Method     string        // HTTP method
	Workers    int           // Simulated clients per iteration
	RampUp     time.Duration // Ramp-up window per iteration
	Iterations string        // Iteration count label ("5" or "inf")
	Timeout    time.Duration // Per-request timeout
	ConfigFile string        // Path to config file if used
}

// Dashboard renders a live terminal UI for run metrics.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid            *ui.Grid
	latencySparkle  *widgets.SparklineGroup
	latencyPara     *widgets.Paragraph
	throughputGauge *widgets.Gauge
	errorList       *widgets.List
	summaryPara     *widgets.Paragraph
	metricsPara     *widgets.Paragraph
	latencyHistory  []float64
	startTime       time.Time
	testConfig      TestConfig
}

// New creates a new Dashboard.
func New(collector *metrics.Collector, cfg TestConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		collector:      collector,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		latencyHistory: make([]float64, 0, 100),
		startTime:      time.Now(),
		testConfig:     cfg,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	sparkline := widgets.NewSparkline()
	sparkline.Title = "Latency (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.latencySparkle = widgets.NewSparklineGroup(sparkline)
	d.latencySparkle.Title = "Real-time Latency"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Latency Stats"
	d.latencyPara.Text = "Min: 0ms\nMean: 0ms\nMax: 0ms\nP50: 0ms\nP90: 0ms\nP99: 0ms"
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	d.throughputGauge = widgets.NewGauge()
	d.throughputGauge.Title = "Throughput"
	d.throughputGauge.Percent = 0
	d.throughputGauge.BarColor = ui.ColorBlue
	d.throughputGauge.BorderStyle.Fg = ui.ColorCyan
	d.throughputGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.errorList = widgets.NewList()
	d.errorList.Title = "Errors"
	d.errorList.Rows = []string{"No failures"}
	d.errorList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.errorList.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.metricsPara = widgets.NewParagraph()
	d.metricsPara.Title = "Metrics"
	d.metricsPara.Text = "Waiting for data..."
	d.metricsPara.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.22,
			ui.NewCol(0.5, d.throughputGauge),
			ui.NewCol(0.5, d.metricsPara),
		),
		ui.NewRow(0.32,
			ui.NewCol(0.65, d.latencySparkle),
			ui.NewCol(0.35, d.latencyPara),
		),
		ui.NewRow(0.30,
			ui.NewCol(1.0, d.errorList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and cleans up.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			// Drain any remaining events
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Do not return here; wait for Stop() to cancel context
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the collector.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := time.Since(d.startTime)
	summary := d.collector.Summary(elapsed)
	p50 := float64(d.collector.LatencyQuantile(50)) / float64(time.Millisecond)
	p90 := float64(d.collector.LatencyQuantile(90)) / float64(time.Millisecond)
	p99 := float64(d.collector.LatencyQuantile(99)) / float64(time.Millisecond)

	if summary.HasLatency {
		latencyMs := summary.MeanLatencyMs
		d.latencyHistory = append(d.latencyHistory, latencyMs)
		if len(d.latencyHistory) > 100 {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		d.latencySparkle.Title = fmt.Sprintf(
			"Real-time Latency | Mean: %.2fms | Min: %.2fms | Max: %.2fms",
			latencyMs,
			summary.MinLatencyMs,
			summary.MaxLatencyMs,
		)
	}

	throughput := summary.Throughput
	maxThroughput := 100.0
	if throughput > maxThroughput {
		maxThroughput = throughput
	}
	percent := int((throughput / maxThroughput) * 100)
	if percent > 100 {
		percent = 100
	}
	d.throughputGauge.Percent = percent
	d.throughputGauge.Label = fmt.Sprintf("%.1f req/s", throughput)

	passRate := 0.0
	if summary.Total > 0 {
		passRate = (float64(summary.Passed) / float64(summary.Total)) * 100
	}

	d.summaryPara.Text = fmt.Sprintf(
		"Target: %s\n%s\nElapsed: %s | Total: %d | Pass Rate: %.1f%%",
		d.testConfig.TargetURL,
		d.formatTestParams(),
		elapsed.Round(time.Second),
		summary.Total,
		passRate,
	)

	d.metricsPara.Text = fmt.Sprintf(
		"Total Requests:    %d\nPassed:            %d\nFailed:            %d\nError Percentage:  %.1f%%\nThroughput:        %.2f req/s\nMin Latency:       %.2fms\nMean Latency:      %.2fms",
		summary.Total,
		summary.Passed,
		summary.Failed,
		summary.ErrorPercentage,
		throughput,
		summary.MinLatencyMs,
		summary.MeanLatencyMs,
	)

	d.latencyPara.Text = fmt.Sprintf(
		"Min:  %.2fms\nMean: %.2fms\nMax:  %.2fms\nP50:  %.2fms\nP90:  %.2fms\nP99:  %.2fms",
		summary.MinLatencyMs,
		summary.MeanLatencyMs,
		summary.MaxLatencyMs,
		p50,
		p90,
		p99,
	)

	d.errorList.Rows = formatErrorRows(summary.Errors)
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func formatErrorRows(errors map[string]int) []string {
	if len(errors) == 0 {
		return []string{"[No failures](fg:green)"}
	}
	types := make([]string, 0, len(errors))
	for errType := range errors {
		types = append(types, errType)
	}
	sort.Slice(types, func(i, j int) bool {
		if errors[types[i]] == errors[types[j]] {
			return types[i] < types[j]
		}
		return errors[types[i]] > errors[types[j]]
	})
	maxRows := len(types)
	if maxRows > 10 {
		maxRows = 10
	}
	formatted := make([]string, 0, maxRows)
	for i := 0; i < maxRows; i++ {
		errType := types[i]
		formatted = append(formatted, fmt.Sprintf("[%s](fg:red) %d", metrics.FriendlyErrorName(errType), errors[errType]))
	}
	return formatted
}

// formatTestParams formats the run parameters for display.
func (d *Dashboard) formatTestParams() string {
	var parts []string

	if d.testConfig.Method != "" && d.testConfig.Method != "GET" {
		parts = append(parts, fmt.Sprintf("Method: %s", d.testConfig.Method))
	}
	if d.testConfig.Workers > 0 {
		parts = append(parts, fmt.Sprintf("Workers: %d", d.testConfig.Workers))
	}
	if d.testConfig.RampUp > 0 {
		parts = append(parts, fmt.Sprintf("Ramp-up: %s", d.testConfig.RampUp))
	}
	if d.testConfig.Iterations != "" {
		parts = append(parts, fmt.Sprintf("Iterations: %s", d.testConfig.Iterations))
	}
	if d.testConfig.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", d.testConfig.Timeout))
	}
	if d.testConfig.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", d.testConfig.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
