package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config carries the full run configuration. It is built once by the Loader
// and treated as immutable by every other component.
type Config struct {
	APIURL     string        `mapstructure:"target"`
	Method     string        `mapstructure:"method"`
	Workers    int           `mapstructure:"workers"`
	RampUp     time.Duration `mapstructure:"ramp_up"`
	Iterations int           `mapstructure:"iterations"`
	Unbounded  bool          `mapstructure:"unbounded"`
	Timeout    time.Duration `mapstructure:"timeout"`

	SendParams       bool              `mapstructure:"send_params"`
	SendBody         bool              `mapstructure:"send_body"`
	SendBearer       bool              `mapstructure:"send_bearer"`
	SendSessionToken bool              `mapstructure:"send_session_token"`
	SendOrigin       bool              `mapstructure:"send_origin"`
	Params           map[string]string `mapstructure:"params"`
	Body             map[string]any    `mapstructure:"body"`
	BearerToken      string            `mapstructure:"bearer_token"`
	SessionTokenSeed string            `mapstructure:"session_token_seed"`
	SessionBodyPath  string            `mapstructure:"session_body_path"`
	Headers          map[string]string `mapstructure:"headers"`
	OriginURL        string            `mapstructure:"origin"`

	LogFile    string        `mapstructure:"log_file"`
	JSONOutput bool          `mapstructure:"json_output"`
	Dashboard  bool          `mapstructure:"dashboard"`
	LogErrors  bool          `mapstructure:"log_errors"`
	Tracing    TracingConfig `mapstructure:"tracing"`
	ConfigFile string        `mapstructure:"-"`
}

// TracingConfig controls the optional OTLP trace exporter.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Propagate   bool    `mapstructure:"propagate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// Enabled reports whether tracing has been requested at all.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// ShouldPropagate reports whether W3C trace headers are injected into requests.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Propagate
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// IterationLabel renders the iteration count for display and log-file naming.
func (c Config) IterationLabel() string {
	if c.Unbounded {
		return "inf"
	}
	return fmt.Sprintf("%d", c.Iterations)
}

// LogFileName returns the configured log path, or the default name derived
// from the worker and iteration counts.
func (c Config) LogFileName() string {
	if strings.TrimSpace(c.LogFile) != "" {
		return c.LogFile
	}
	return fmt.Sprintf("threads_%d_loop_%s.log", c.Workers, c.IterationLabel())
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks the configuration before any task is scheduled. A non-nil
// result is fatal: the run must not start.
func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.APIURL) == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	}
	if !allowedMethods[strings.ToUpper(strings.TrimSpace(c.Method))] {
		issues = append(issues, fmt.Sprintf("method %q is not one of GET, POST, PUT, PATCH, DELETE", c.Method))
	}
	if c.Workers < 1 {
		issues = append(issues, "workers must be >= 1")
	}
	if c.RampUp < 0 {
		issues = append(issues, "ramp-up must be >= 0")
	}
	if !c.Unbounded && c.Iterations < 1 {
		issues = append(issues, "iterations must be >= 1 (or \"inf\")")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.SendBearer && strings.TrimSpace(c.BearerToken) == "" {
		issues = append(issues, "send-bearer requires a bearer token")
	}
	if c.SendOrigin && strings.TrimSpace(c.OriginURL) == "" {
		issues = append(issues, "send-origin requires an origin URL")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		issues = append(issues, fmt.Sprintf("tracing sample_rate must be between 0.0 and 1.0, got %g", c.Tracing.SampleRate))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
