// Package config provides configuration loading for doctord.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fyrsmithlabs/doctord/internal/logging"
)

// Config is the full doctord configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   logging.Config  `koanf:"logging"`
	NATS      NATSConfig      `koanf:"nats"`
	Analysis  AnalysisConfig  `koanf:"analysis"`
	Store     StoreConfig     `koanf:"store"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig controls the operational HTTP server.
type ServerConfig struct {
	Port                   int `koanf:"port"`
	ShutdownTimeoutSeconds int `koanf:"shutdown_timeout_seconds"`
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// NATSConfig controls the build-completion event intake.
type NATSConfig struct {
	URL     string `koanf:"url"`
	Subject string `koanf:"subject"`
	Queue   string `koanf:"queue"`
}

// AnalysisConfig controls when and how passes run.
type AnalysisConfig struct {
	// EnabledByDefault gates the whole diagnostics feature.
	EnabledByDefault bool `koanf:"enabled_by_default"`

	// AutoAnalyze runs a pass automatically on build completion.
	AutoAnalyze bool `koanf:"auto_analyze"`

	// MaxResultsPerBuild truncates the merged results of one pass.
	MaxResultsPerBuild int `koanf:"max_results_per_build"`

	// TimeoutSeconds bounds each provider invocation; 0 disables.
	TimeoutSeconds int `koanf:"timeout_seconds"`

	// ExcludedJobPatterns are regexes; matching job names skip the
	// whole pass. Patterns may also be given comma-separated.
	ExcludedJobPatterns []string `koanf:"excluded_job_patterns"`

	// Threshold is the worst outcome that still counts as "good":
	// builds with this outcome or worse are analyzed. One of
	// "unstable", "failure", "aborted".
	Threshold string `koanf:"threshold"`

	// VerboseLogging enables per-provider debug logging.
	VerboseLogging bool `koanf:"verbose_logging"`
}

// ProviderTimeout returns the bounded-wait duration per provider.
func (c AnalysisConfig) ProviderTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CompiledExclusions compiles the excluded-job patterns. Call after
// Validate; invalid patterns fail there first.
func (c AnalysisConfig) CompiledExclusions() ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, raw := range c.ExcludedJobPatterns {
		for _, pattern := range splitPatterns(raw) {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid excluded job pattern %q: %w", pattern, err)
			}
			out = append(out, re)
		}
	}
	return out, nil
}

// StoreConfig controls result-set persistence.
type StoreConfig struct {
	// Path is the directory holding the results index. Empty uses
	// ~/.config/doctord.
	Path string `koanf:"path"`
}

// TelemetryConfig controls OTLP trace export.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

// validThresholds are the accepted analysis trigger thresholds.
var validThresholds = map[string]bool{
	"unstable": true,
	"failure":  true,
	"aborted":  true,
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in [1,65535], got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeoutSeconds < 0 {
		return fmt.Errorf("shutdown timeout must be >= 0, got %d", c.Server.ShutdownTimeoutSeconds)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Analysis.MaxResultsPerBuild < 1 {
		return fmt.Errorf("max results per build must be at least 1, got %d", c.Analysis.MaxResultsPerBuild)
	}
	if c.Analysis.TimeoutSeconds < 0 {
		return fmt.Errorf("analysis timeout must be >= 0, got %d", c.Analysis.TimeoutSeconds)
	}
	if !validThresholds[c.Analysis.Threshold] {
		return fmt.Errorf("analysis threshold must be one of unstable, failure, aborted; got %q", c.Analysis.Threshold)
	}
	if _, err := c.Analysis.CompiledExclusions(); err != nil {
		return err
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be in [0,1], got %v", c.Telemetry.SampleRatio)
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("nats subject cannot be empty")
	}
	return nil
}

// splitPatterns splits a raw pattern entry on commas and newlines, the
// same separators the original admin form accepted.
func splitPatterns(raw string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	}) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
