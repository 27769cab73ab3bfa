// Package event defines the immutable domain event broadcast to every
// connected dashboard client. The streaming core treats the payload as
// opaque: only the type tag and target id are interpreted, and only for
// routing and staleness checks.
package event

import (
	"encoding/json"
	"time"
)

// Type tags a domain occurrence. The core never inspects payloads, so the
// tag is the only part of an event that routing and reducers key on.
type Type string

const (
	ItemAdded         Type = "item_added"
	ItemRemoved       Type = "item_removed"
	ItemUpdated       Type = "item_updated"
	FieldChanged      Type = "field_changed"
	AlertRaised       Type = "alert_raised"
	AlertAcknowledged Type = "alert_acknowledged"
	AlertResolved     Type = "alert_resolved"
	MetricSnapshot    Type = "metric_snapshot"
)

var knownTypes = map[Type]bool{
	ItemAdded:         true,
	ItemRemoved:       true,
	ItemUpdated:       true,
	FieldChanged:      true,
	AlertRaised:       true,
	AlertAcknowledged: true,
	AlertResolved:     true,
	MetricSnapshot:    true,
}

// Known reports whether t is one of the defined event types.
func Known(t Type) bool {
	return knownTypes[t]
}

// EntityScoped reports whether events of type t must carry a target id.
// metric_snapshot describes the whole dashboard rather than one entity,
// so it is the only type allowed to omit the target.
func EntityScoped(t Type) bool {
	return t != MetricSnapshot
}

// Event is one domain occurrence. Events are immutable once constructed:
// producers hand the payload map to the adapter and must not mutate it
// afterwards. The core never copies payloads.
type Event struct {
	Type      Type           `json:"event_type"`
	TargetID  string         `json:"item_id"`
	Payload   map[string]any `json:"data,omitempty"`
	EmittedAt time.Time      `json:"timestamp"`
	Origin    string         `json:"agent_id"`
	UserID    string         `json:"user_id,omitempty"`
}

// Marshal encodes the event into its wire frame. The broadcaster calls
// this once per publish so every subscriber receives identical bytes.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
