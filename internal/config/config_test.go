package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadWithFile_Defaults(t *testing.T) {
	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, 9131, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "ci.build.completed", cfg.NATS.Subject)
	assert.True(t, cfg.Analysis.EnabledByDefault)
	assert.True(t, cfg.Analysis.AutoAnalyze)
	assert.Equal(t, 50, cfg.Analysis.MaxResultsPerBuild)
	assert.Equal(t, 300, cfg.Analysis.TimeoutSeconds)
	assert.Equal(t, "unstable", cfg.Analysis.Threshold)
	assert.Equal(t, "doctord", cfg.Telemetry.ServiceName)
}

func TestLoadWithFile_YAMLOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
analysis:
  auto_analyze: false
  max_results_per_build: 10
  excluded_job_patterns:
    - "^sandbox/.*"
`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Analysis.AutoAnalyze)
	assert.True(t, cfg.Analysis.EnabledByDefault)
	assert.Equal(t, 10, cfg.Analysis.MaxResultsPerBuild)

	exclusions, err := cfg.Analysis.CompiledExclusions()
	require.NoError(t, err)
	require.Len(t, exclusions, 1)
	assert.True(t, exclusions[0].MatchString("sandbox/test-job"))
	assert.False(t, exclusions[0].MatchString("ci/main"))
}

func TestLoadWithFile_EnvOverrides(t *testing.T) {
	t.Setenv("DOCTORD_SERVER_PORT", "7070")
	t.Setenv("DOCTORD_ANALYSIS_MAX_RESULTS_PER_BUILD", "5")

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Analysis.MaxResultsPerBuild)
}

func TestLoadWithFile_InvalidExclusionPattern(t *testing.T) {
	path := writeConfig(t, `
analysis:
  excluded_job_patterns:
    - "([unclosed"
`)

	_, err := LoadWithFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = -1 }, true},
		{"zero max results", func(c *Config) { c.Analysis.MaxResultsPerBuild = 0 }, true},
		{"negative timeout", func(c *Config) { c.Analysis.TimeoutSeconds = -5 }, true},
		{"bad threshold", func(c *Config) { c.Analysis.Threshold = "purple" }, true},
		{"bad sample ratio", func(c *Config) { c.Telemetry.SampleRatio = 2 }, true},
		{"empty subject", func(c *Config) { c.NATS.Subject = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompiledExclusions_CommaSeparated(t *testing.T) {
	cfg := AnalysisConfig{ExcludedJobPatterns: []string{"^deploy/.*, ^docs/.*"}}

	exclusions, err := cfg.CompiledExclusions()
	require.NoError(t, err)
	assert.Len(t, exclusions, 2)
}
