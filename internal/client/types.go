// Package client consumes a chainwatch event stream. It keeps one
// WebSocket connection alive, folds the inbound events into a local
// copy of the dashboard state through idempotent reducers, and
// reconnects on loss at a fixed interval. The terminal dashboard
// renders from this package's snapshots.
package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chainwatch/chainwatch/internal/dashboard"
	"github.com/chainwatch/chainwatch/internal/event"
)

// WireEvent is one inbound domain event. It mirrors the server's event
// shape but keeps the payload raw so typed decoding happens at the
// consumer boundary, where a failure can be surfaced instead of
// misapplied.
type WireEvent struct {
	Type      event.Type      `json:"event_type"`
	TargetID  string          `json:"item_id"`
	Data      json.RawMessage `json:"data"`
	EmittedAt time.Time       `json:"timestamp"`
	AgentID   string          `json:"agent_id"`
	UserID    string          `json:"user_id,omitempty"`
}

// StatusFrame is one inbound reply or progress message.
type StatusFrame struct {
	Type      string          `json:"type"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	AlertID   string          `json:"alert_id,omitempty"`
	Success   *bool           `json:"success,omitempty"`
	ItemID    string          `json:"item_id,omitempty"`
	Intent    json.RawMessage `json:"intent,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ConnState is the connection indicator shown in the dashboard.
type ConnState int

const (
	StateIdle ConnState = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("ConnState(%d)", int(s))
	}
}

// Update is one notification on the client's update channel. Consumers
// type-switch on the concrete types below.
type Update interface{ update() }

// ConnectionChanged reports a connection state transition. Err is set
// when the transition was caused by a failure.
type ConnectionChanged struct {
	State ConnState
	Err   error
}

// SnapshotLoaded reports that a dashboard_data reply rebuilt the alert
// book and metrics.
type SnapshotLoaded struct{}

// EventApplied reports that a domain event changed the local state.
// Stale duplicates are dropped without a notification.
type EventApplied struct {
	Type     event.Type
	TargetID string
}

// StatusReceived carries command replies, staged request progress and
// server-side errors.
type StatusReceived struct {
	Status StatusFrame
}

// DecodeFailed reports a frame that could not be decoded. The local
// state is left untouched.
type DecodeFailed struct {
	Err error
}

func (ConnectionChanged) update() {}
func (SnapshotLoaded) update()    {}
func (EventApplied) update()      {}
func (StatusReceived) update()    {}
func (DecodeFailed) update()      {}

// DecodeItem decodes an item event payload into its field map.
func DecodeItem(data json.RawMessage) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("client: decode item payload: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// DecodeAlert decodes an alert event payload.
func DecodeAlert(data json.RawMessage) (dashboard.Alert, error) {
	var a dashboard.Alert
	if err := json.Unmarshal(data, &a); err != nil {
		return dashboard.Alert{}, fmt.Errorf("client: decode alert payload: %w", err)
	}
	return a, nil
}

// DecodeMetrics decodes a metric_snapshot payload.
func DecodeMetrics(data json.RawMessage) (dashboard.Metrics, error) {
	var m dashboard.Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return dashboard.Metrics{}, fmt.Errorf("client: decode metrics payload: %w", err)
	}
	return m, nil
}
