// Package metrics exposes the server's Prometheus instrumentation.
// Collectors are registered at init via promauto and shared across
// packages as package-level vars.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectedClients tracks the current size of the connection registry.
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chainwatch_connected_clients",
		Help: "Number of currently registered websocket subscribers.",
	})

	// EventsPublished counts domain events fanned out, by event type.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainwatch_events_published_total",
		Help: "Domain events accepted by the broadcaster, labelled by event type.",
	}, []string{"event_type"})

	// SlowClientDisconnects counts subscribers dropped because their
	// send queue overflowed.
	SlowClientDisconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainwatch_slow_client_disconnects_total",
		Help: "Subscribers disconnected after their outbound queue filled up.",
	})

	// CommandsReceived counts client commands by command name.
	CommandsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainwatch_commands_received_total",
		Help: "Client commands handled by the websocket server, labelled by command.",
	}, []string{"command"})

	// ActiveAlerts tracks alerts currently on the active board.
	ActiveAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chainwatch_active_alerts",
		Help: "Alerts currently active on the dashboard.",
	})
)
