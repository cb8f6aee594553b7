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
	path := filepath.Join(t.TempDir(), "epicbreaker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
tracker:
  base_url: https://example.atlassian.net
  email: planner@example.com
  api_token: secret
  project: PROJ
oracle:
  provider: openai
  api_key: sk-test
  model: gpt-4o-mini
planning:
  max_cycle_days: 3
  coverage: comprehensive
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.atlassian.net", cfg.Tracker.BaseURL)
	assert.Equal(t, "PROJ", cfg.Tracker.Project)
	assert.Equal(t, "openai", cfg.Oracle.Provider)
	assert.Equal(t, 3.0, cfg.Planning.MaxCycleDays)
	assert.Equal(t, "comprehensive", cfg.Planning.Coverage)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "none", cfg.Oracle.Provider)
	assert.Equal(t, 5.0, cfg.Planning.MaxCycleDays)
	assert.Equal(t, "standard", cfg.Planning.Coverage)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "planning:\n  max_cycle_days: 3\n")
	t.Setenv("EPICBREAKER_PLANNING_MAX_CYCLE_DAYS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7.0, cfg.Planning.MaxCycleDays)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative cycle days",
			mutate:  func(c *Config) { c.Planning.MaxCycleDays = -1 },
			wantErr: "max_cycle_days",
		},
		{
			name:    "bad coverage",
			mutate:  func(c *Config) { c.Planning.Coverage = "extreme" },
			wantErr: "coverage",
		},
		{
			name:    "bad provider",
			mutate:  func(c *Config) { c.Oracle.Provider = "claude" },
			wantErr: "provider",
		},
		{
			name: "openai without key",
			mutate: func(c *Config) {
				c.Oracle.Provider = "openai"
				c.Oracle.APIKey = ""
			},
			wantErr: "api_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
