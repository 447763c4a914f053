// Package config loads tripflow configuration from YAML or JSON files.
//
// Values are held loosely typed; accessor methods return defaults when a
// key is missing or can't be converted. Settings() extracts the engine
// parameters with their defaults.
package config

import (
	"time"
)

// Config wraps a map[string]any for type-safe value extraction.
// All accessor methods return default values if the key is missing
// or the value cannot be converted to the requested type.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (c Config) String(key, defaultVal string) string {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	if s, ok := v.(string); ok {
		return s
	}
	return defaultVal
}

// Duration returns the duration value for key, or defaultVal if missing or invalid.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int: interpreted as seconds
//   - int64: interpreted as seconds
//   - float64: interpreted as seconds
//   - time.Duration: used directly
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case time.Duration:
		return val
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not a bool.
func (c Config) Bool(key string, defaultVal bool) bool {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not convertible.
//
// Accepts:
//   - int: used directly
//   - int64: converted
//   - float64: truncated (YAML numbers often parse as float64)
func (c Config) Int(key string, defaultVal int) int {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	}
	return defaultVal
}

// Float64 returns the float value for key, or defaultVal if missing or not convertible.
func (c Config) Float64(key string, defaultVal float64) float64 {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return defaultVal
}

// Settings captures the engine parameters: a 120 second step timeout for
// plan generation and a retry budget of 2 unless configured otherwise.
type Settings struct {
	// StepTimeout bounds the plan-generation step.
	StepTimeout time.Duration
	// RetryBudget is the number of automatic retries per step after the
	// initial attempt.
	RetryBudget int
	// InitialBackoff is the first retry delay.
	InitialBackoff time.Duration
	// EventDBPath is the SQLite path for the event log store.
	EventDBPath string
	// WorkflowDBPath is the SQLite path for the workflow instance store.
	WorkflowDBPath string
}

// Settings extracts engine settings from the config.
func (c Config) Settings() Settings {
	return Settings{
		StepTimeout:    c.Duration("step_timeout", 120*time.Second),
		RetryBudget:    c.Int("retry_budget", 2),
		InitialBackoff: c.Duration("initial_backoff", 500*time.Millisecond),
		EventDBPath:    c.String("event_db_path", "./events.db"),
		WorkflowDBPath: c.String("workflow_db_path", "./workflows.db"),
	}
}
