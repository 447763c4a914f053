package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigAccessors(t *testing.T) {
	cfg := New(map[string]any{
		"name":     "tripflow",
		"timeout":  "45s",
		"seconds":  90,
		"enabled":  true,
		"retries":  float64(4), // YAML numbers often parse as float64
		"fraction": 0.25,
	})

	assert.Equal(t, "tripflow", cfg.String("name", "fallback"))
	assert.Equal(t, "fallback", cfg.String("missing", "fallback"))
	assert.Equal(t, "fallback", cfg.String("enabled", "fallback"))

	assert.Equal(t, 45*time.Second, cfg.Duration("timeout", time.Second))
	assert.Equal(t, 90*time.Second, cfg.Duration("seconds", time.Second))
	assert.Equal(t, time.Second, cfg.Duration("missing", time.Second))

	assert.True(t, cfg.Bool("enabled", false))
	assert.False(t, cfg.Bool("missing", false))

	assert.Equal(t, 4, cfg.Int("retries", 1))
	assert.Equal(t, 1, cfg.Int("missing", 1))

	assert.Equal(t, 0.25, cfg.Float64("fraction", 1.0))
}

func TestSettingsDefaults(t *testing.T) {
	settings := New(nil).Settings()

	assert.Equal(t, 120*time.Second, settings.StepTimeout)
	assert.Equal(t, 2, settings.RetryBudget)
	assert.Equal(t, 500*time.Millisecond, settings.InitialBackoff)
	assert.Equal(t, "./events.db", settings.EventDBPath)
	assert.Equal(t, "./workflows.db", settings.WorkflowDBPath)
}

func TestSettingsOverrides(t *testing.T) {
	cfg, err := FromYAML([]byte(`
step_timeout: 30s
retry_budget: 5
initial_backoff: 250ms
event_db_path: /var/lib/tripflow/events.db
workflow_db_path: /var/lib/tripflow/workflows.db
`))
	require.NoError(t, err)

	settings := cfg.Settings()
	assert.Equal(t, 30*time.Second, settings.StepTimeout)
	assert.Equal(t, 5, settings.RetryBudget)
	assert.Equal(t, 250*time.Millisecond, settings.InitialBackoff)
	assert.Equal(t, "/var/lib/tripflow/events.db", settings.EventDBPath)
	assert.Equal(t, "/var/lib/tripflow/workflows.db", settings.WorkflowDBPath)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("step_timeout: 10s\n"), 0o644))

	cfg, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Settings().StepTimeout)

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"retry_budget": 7}`), 0o644))

	cfg, err = FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Settings().RetryBudget)

	_, err = FromFile(filepath.Join(dir, "config.toml"))
	assert.Error(t, err)
}

func TestFromYAMLInvalid(t *testing.T) {
	_, err := FromYAML([]byte("step_timeout: [unclosed"))
	assert.Error(t, err)
}
