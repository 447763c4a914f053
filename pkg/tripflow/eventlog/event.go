// Package eventlog provides append-only per-aggregate event storage with
// optimistic sequencing. An acknowledged append survives process restart,
// and the expected-sequence check acts as a single-writer gate per
// aggregate id.
package eventlog

import (
	"encoding/json"
	"time"
)

// Kind identifies the type of an event within an aggregate's variant set.
type Kind string

// Event is an immutable fact about one aggregate instance.
// Events are ordered by Seq per aggregate and are never mutated or deleted.
type Event struct {
	// AggregateID is the aggregate instance this event belongs to.
	AggregateID string `json:"aggregate_id"`
	// Seq is the event sequence number within the aggregate (starts at 1).
	// Assigned by the store on append.
	Seq uint64 `json:"seq"`
	// Kind identifies the event variant.
	Kind Kind `json:"kind"`
	// Payload holds event-specific data as JSON.
	Payload json.RawMessage `json:"payload"`
	// Timestamp is when the event was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// New creates an event for the given aggregate with a JSON-encoded payload.
// Seq and Timestamp are assigned by the store on append.
func New(aggregateID string, kind Kind, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateID: aggregateID,
		Kind:        kind,
		Payload:     data,
	}, nil
}

// Decode unmarshals the event payload into out.
func (e Event) Decode(out any) error {
	return json.Unmarshal(e.Payload, out)
}
