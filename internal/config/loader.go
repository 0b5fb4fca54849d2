package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		Method:     "GET",
		Workers:    1,
		Iterations: 1,
		Timeout:    30 * time.Second,
		Headers:    map[string]string{"Content-Type": "application/json"},
		ConfigFile: configPath,
		Tracing:    TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	cfg.APIURL = strings.TrimSpace(cfg.APIURL)

	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "target", "api_url", "apiurl"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		cfg.APIURL = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "method"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("method: %w", err)
		}
		if val != "" {
			cfg.Method = val
		}
	}

	if raw, ok := lookupSetting(settings, "workers", "threads"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("workers: %w", err)
		}
		cfg.Workers = val
	}

	if raw, ok := lookupSetting(settings, "rampup", "ramp_up", "ramp-up"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("rampUp: %w", err)
		}
		cfg.RampUp = dur
	}

	if raw, ok := lookupSetting(settings, "iterations", "loop_count", "loop-count"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("iterations: %w", err)
		}
		count, unbounded, err := parseIterations(val)
		if err != nil {
			return err
		}
		cfg.Iterations = count
		cfg.Unbounded = unbounded
	}

	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = dur
	}

	if raw, ok := lookupSetting(settings, "headers"); ok {
		hdrs, err := asStringMap(raw)
		if err != nil {
			return fmt.Errorf("headers: %w", err)
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range hdrs {
			cfg.Headers[http.CanonicalHeaderKey(k)] = v
		}
	}

	if raw, ok := lookupSetting(settings, "params"); ok {
		params, err := asStringMap(raw)
		if err != nil {
			return fmt.Errorf("params: %w", err)
		}
		cfg.Params = params
	}

	if raw, ok := lookupSetting(settings, "body", "body_content", "body-content"); ok {
		body, err := asAnyMap(raw)
		if err != nil {
			return fmt.Errorf("body: %w", err)
		}
		cfg.Body = body
	}

	boolSettings := []struct {
		dst  *bool
		keys []string
	}{
		{&cfg.SendParams, []string{"sendparams", "send_params", "send-params"}},
		{&cfg.SendBody, []string{"sendbody", "send_body", "send-body"}},
		{&cfg.SendBearer, []string{"sendbearer", "send_bearer", "send-bearer"}},
		{&cfg.SendSessionToken, []string{"sendsessiontoken", "send_session_token", "send-session-token"}},
		{&cfg.SendOrigin, []string{"sendorigin", "send_origin", "send-origin"}},
		{&cfg.JSONOutput, []string{"jsonoutput", "json_output", "json-output"}},
		{&cfg.Dashboard, []string{"dashboard"}},
		{&cfg.LogErrors, []string{"logerrors", "log_errors", "log-errors"}},
	}
	for _, setting := range boolSettings {
		if raw, ok := lookupSetting(settings, setting.keys...); ok {
			val, err := asBool(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", setting.keys[0], err)
			}
			*setting.dst = val
		}
	}

	stringSettings := []struct {
		dst  *string
		keys []string
	}{
		{&cfg.BearerToken, []string{"bearertoken", "bearer_token", "bearer-token"}},
		{&cfg.SessionTokenSeed, []string{"sessiontokenseed", "session_token_seed", "session-token-seed"}},
		{&cfg.SessionBodyPath, []string{"sessionbodypath", "session_body_path", "session-body-path"}},
		{&cfg.OriginURL, []string{"origin", "origin_url", "origin-url"}},
		{&cfg.LogFile, []string{"logfile", "log_file", "log-file"}},
	}
	for _, setting := range stringSettings {
		if raw, ok := lookupSetting(settings, setting.keys...); ok {
			val, err := asString(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", setting.keys[0], err)
			}
			*setting.dst = val
		}
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		section, err := asAnyMap(raw)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		if err := applyTracingSettings(&cfg.Tracing, section); err != nil {
			return err
		}
	}

	return nil
}

func applyTracingSettings(tc *TracingConfig, settings map[string]interface{}) error {
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("tracing.endpoint: %w", err)
		}
		tc.Endpoint = val
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("tracing.protocol: %w", err)
		}
		if val != "" {
			tc.Protocol = val
		}
	}
	if raw, ok := lookupSetting(settings, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("tracing.service_name: %w", err)
		}
		tc.ServiceName = val
	}
	if raw, ok := lookupSetting(settings, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("tracing.sample_rate: %w", err)
		}
		tc.SampleRate = val
	}
	if raw, ok := lookupSetting(settings, "propagate"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("tracing.propagate: %w", err)
		}
		tc.Propagate = val
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("tracing.insecure: %w", err)
		}
		tc.Insecure = val
	}
	return nil
}

// applyFlagOverrides applies explicitly-set CLI flags on top of file settings.
func applyFlagOverrides(cfg *Config, flags *pflag.FlagSet) error {
	var flagErr error

	stringFlag := func(name string, dst *string) {
		if flagErr != nil || !flags.Changed(name) {
			return
		}
		val, err := flags.GetString(name)
		if err != nil {
			flagErr = err
			return
		}
		*dst = val
	}
	boolFlag := func(name string, dst *bool) {
		if flagErr != nil || !flags.Changed(name) {
			return
		}
		val, err := flags.GetBool(name)
		if err != nil {
			flagErr = err
			return
		}
		*dst = val
	}
	durationFlag := func(name string, dst *time.Duration) {
		if flagErr != nil || !flags.Changed(name) {
			return
		}
		val, err := flags.GetDuration(name)
		if err != nil {
			flagErr = err
			return
		}
		*dst = val
	}

	stringFlag("target", &cfg.APIURL)
	stringFlag("method", &cfg.Method)
	durationFlag("ramp-up", &cfg.RampUp)
	durationFlag("timeout", &cfg.Timeout)

	if flagErr == nil && flags.Changed("workers") {
		val, err := flags.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = val
	}

	if flagErr == nil && flags.Changed("iterations") {
		raw, err := flags.GetString("iterations")
		if err != nil {
			return err
		}
		count, unbounded, err := parseIterations(raw)
		if err != nil {
			return err
		}
		cfg.Iterations = count
		cfg.Unbounded = unbounded
	}

	if flagErr == nil && flags.Changed("header") {
		hdrs, err := flags.GetStringToString("header")
		if err != nil {
			return err
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range hdrs {
			cfg.Headers[http.CanonicalHeaderKey(k)] = v
		}
	}

	if flagErr == nil && flags.Changed("param") {
		params, err := flags.GetStringToString("param")
		if err != nil {
			return err
		}
		cfg.Params = params
	}

	if flagErr == nil && flags.Changed("body") {
		raw, err := flags.GetString("body")
		if err != nil {
			return err
		}
		var body map[string]any
		if strings.TrimSpace(raw) != "" {
			if err := json.Unmarshal([]byte(raw), &body); err != nil {
				return fmt.Errorf("body: %w", err)
			}
		}
		cfg.Body = body
	}

	boolFlag("send-params", &cfg.SendParams)
	boolFlag("send-body", &cfg.SendBody)
	boolFlag("send-bearer", &cfg.SendBearer)
	boolFlag("send-session-token", &cfg.SendSessionToken)
	boolFlag("send-origin", &cfg.SendOrigin)
	stringFlag("bearer-token", &cfg.BearerToken)
	stringFlag("session-token-seed", &cfg.SessionTokenSeed)
	stringFlag("session-body-path", &cfg.SessionBodyPath)
	stringFlag("origin", &cfg.OriginURL)

	boolFlag("json-output", &cfg.JSONOutput)
	boolFlag("dashboard", &cfg.Dashboard)
	boolFlag("log-errors", &cfg.LogErrors)
	stringFlag("log-file", &cfg.LogFile)

	stringFlag("otel-endpoint", &cfg.Tracing.Endpoint)
	stringFlag("otel-protocol", &cfg.Tracing.Protocol)
	stringFlag("otel-service-name", &cfg.Tracing.ServiceName)
	boolFlag("otel-propagate", &cfg.Tracing.Propagate)
	boolFlag("otel-insecure", &cfg.Tracing.Insecure)
	if flagErr == nil && flags.Changed("otel-sample-rate") {
		val, err := flags.GetFloat64("otel-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}

	return flagErr
}
