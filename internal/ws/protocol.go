package ws

import (
	"context"
	"time"
)

// Client -> server command types.
const (
	CmdGetDashboardData = "get_dashboard_data"
	CmdAcknowledgeAlert = "acknowledge_alert"
	CmdResolveAlert     = "resolve_alert"
	CmdUserRequest      = "user_request"
	CmdPing             = "ping"
)

// Server -> client status types. Domain events use the event wire shape
// instead and are discriminated by their event_type field.
const (
	StatusDashboardData     = "dashboard_data"
	StatusAlertAcknowledged = "alert_acknowledged"
	StatusAlertResolved     = "alert_resolved"
	StatusError             = "error"
)

var pongFrame = []byte(`{"type":"pong"}`)

// Command is one client request frame.
type Command struct {
	Type      string         `json:"type"`
	AlertID   string         `json:"alert_id,omitempty"`
	UserInput string         `json:"user_input,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
}

// Status is a server response or progress frame.
type Status struct {
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
	AlertID   string    `json:"alert_id,omitempty"`
	Success   *bool     `json:"success,omitempty"`
	ItemID    string    `json:"item_id,omitempty"`
	Intent    any       `json:"intent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UserRequest is the payload of a user_request command handed to the
// orchestrator.
type UserRequest struct {
	Input   string
	Context map[string]any
	UserID  string
}

// Orchestrator streams staged progress for a user request. The returned
// channel closes when the request is fully processed; cancelling the
// context stops the stream early.
type Orchestrator interface {
	StreamRequest(ctx context.Context, req UserRequest) (<-chan Status, error)
}
