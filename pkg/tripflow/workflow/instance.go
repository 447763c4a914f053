// Package workflow provides the durable step-workflow engine: a named
// sequence of steps driven for one instance at a time, with every state
// transition persisted before the next step begins. A process crash resumes
// from the last committed state rather than restarting from the first step.
package workflow

import (
	"encoding/json"
	"time"
)

// Status is a workflow instance status.
// StatusStarted, StatusCompleted, and StatusError are engine-owned;
// intermediate statuses are declared by the definition's steps.
type Status string

// Engine-owned statuses.
const (
	StatusStarted   Status = "STARTED"
	StatusCompleted Status = "COMPLETED"
	StatusError     Status = "ERROR"
)

// Instance is the persisted snapshot of one workflow run.
// It contains all information needed to resume execution.
type Instance struct {
	// ID is the caller-chosen instance identifier.
	ID string `json:"id"`
	// Workflow is the definition name this instance runs.
	Workflow string `json:"workflow"`
	// Step is the next step to execute; empty once terminal.
	Step string `json:"step"`
	// Status is the instance status.
	Status Status `json:"status"`
	// State is the JSON-serialized workflow state.
	State json.RawMessage `json:"state"`
	// UpdatedAt is when the snapshot was last committed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the instance accepts no further transitions.
func (i Instance) Terminal() bool {
	return i.Status == StatusCompleted || i.Status == StatusError
}
