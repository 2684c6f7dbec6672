package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// envPrefix scopes environment overrides to doctord.
const envPrefix = "DOCTORD_"

// defaultYAML seeds boolean defaults that cannot be distinguished from
// an explicit false after unmarshaling. Lowest precedence.
var defaultYAML = []byte(`
analysis:
  enabled_by_default: true
  auto_analyze: true
`)

// LoadWithFile loads configuration from a YAML file, then overrides
// with environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (DOCTORD_SERVER_PORT, DOCTORD_ANALYSIS_MAX_RESULTS_PER_BUILD, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// An empty configPath skips the file and uses defaults + environment.
// Environment variables map section_field_name to section.field_name:
//
//	DOCTORD_SERVER_PORT              -> server.port
//	DOCTORD_ANALYSIS_AUTO_ANALYZE    -> analysis.auto_analyze
//	DOCTORD_NATS_URL                 -> nats.url
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment overrides. Split on the first underscore after the
	// prefix: the section name never contains underscores, field names
	// may (e.g. max_results_per_build).
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9131
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 10
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = "ci.build.completed"
	}
	if cfg.NATS.Queue == "" {
		cfg.NATS.Queue = "doctord"
	}

	if cfg.Analysis.MaxResultsPerBuild == 0 {
		cfg.Analysis.MaxResultsPerBuild = 50
	}
	if cfg.Analysis.TimeoutSeconds == 0 {
		cfg.Analysis.TimeoutSeconds = 300
	}
	if cfg.Analysis.Threshold == "" {
		cfg.Analysis.Threshold = "unstable"
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "doctord"
	}
	if cfg.Telemetry.SampleRatio == 0 {
		cfg.Telemetry.SampleRatio = 1.0
	}
}

// Default returns the configuration produced by defaults alone, with
// the diagnostics feature switched on. Used by the one-shot CLI.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Analysis.EnabledByDefault = true
	cfg.Analysis.AutoAnalyze = true
	return cfg
}
