package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chainwatch/chainwatch/internal/config"
	"github.com/chainwatch/chainwatch/internal/dashboard"
	"github.com/chainwatch/chainwatch/internal/event"
	"github.com/chainwatch/chainwatch/internal/metrics"
	"github.com/chainwatch/chainwatch/internal/producer"
)

// Server owns the WebSocket endpoint and the REST mirror of the alert
// commands. Each accepted connection becomes a Session; inbound frames
// are commands, outbound frames come either from the Broadcaster or as
// direct replies on the requester's own queue.
type Server struct {
	registry    *Registry
	broadcaster *Broadcaster
	state       *dashboard.State
	commands    *producer.Adapter
	metricsPub  *producer.MetricsPublisher
	orch        Orchestrator
	clock       clockwork.Clock

	sessionOpts      SessionOptions
	allowedOrigins   map[string]bool
	allowedHosts     map[string]bool
	authToken        string
	monitoringActive bool
}

// NewServer wires the command surface. commands is the adapter used to
// broadcast the domain events that acknowledge/resolve imply; orch may
// be nil, in which case user_request is answered with an error status.
func NewServer(cfg *config.Config, registry *Registry, broadcaster *Broadcaster, state *dashboard.State, commands *producer.Adapter, metricsPub *producer.MetricsPublisher, orch Orchestrator) *Server {
	s := &Server{
		registry:    registry,
		broadcaster: broadcaster,
		state:       state,
		commands:    commands,
		metricsPub:  metricsPub,
		orch:        orch,
		clock:       clockwork.NewRealClock(),
		sessionOpts: SessionOptions{
			QueueSize:       cfg.Stream.QueueSize,
			PingInterval:    cfg.Stream.PingInterval,
			LivenessTimeout: cfg.Stream.LivenessTimeout,
			DrainGrace:      cfg.Stream.DrainGrace,
		},
		allowedOrigins:   make(map[string]bool),
		allowedHosts:     make(map[string]bool),
		authToken:        cfg.Server.AuthToken,
		monitoringActive: cfg.Producers.Alerts.Enabled,
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

// SetClock overrides the clock used for status stamps and session
// liveness. Must be called before the first connection.
func (s *Server) SetClock(clock clockwork.Clock) {
	s.clock = clock
	s.sessionOpts.Clock = clock
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/alerts/", s.handleAlertRoutes)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sess := NewSession(conn, s.registry, s.sessionOpts)
	if err := sess.Start(); err != nil {
		slog.Warn("subscriber rejected", "remote", r.RemoteAddr, "error", err)
		return
	}

	slog.Info("subscriber connected", "session_id", sess.ID(), "remote", r.RemoteAddr)
	go func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		defer slog.Info("subscriber disconnected", "session_id", sess.ID(), "remote", r.RemoteAddr)

		sess.ReadLoop(func(msg []byte) {
			s.handleCommand(ctx, sess, msg)
		})
	}()
}

func (s *Server) handleCommand(ctx context.Context, sess *Session, raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		metrics.CommandsReceived.WithLabelValues("invalid").Inc()
		s.sendStatus(sess, Status{Type: StatusError, Message: "Invalid JSON format"})
		return
	}

	switch cmd.Type {
	case CmdPing:
		metrics.CommandsReceived.WithLabelValues(cmd.Type).Inc()
		deliver(sess, pongFrame)
	case CmdGetDashboardData:
		metrics.CommandsReceived.WithLabelValues(cmd.Type).Inc()
		s.sendStatus(sess, Status{Type: StatusDashboardData, Data: s.state.Data()})
	case CmdAcknowledgeAlert:
		metrics.CommandsReceived.WithLabelValues(cmd.Type).Inc()
		ok := s.acknowledgeAlert(cmd.AlertID, cmd.UserID)
		s.sendStatus(sess, Status{Type: StatusAlertAcknowledged, AlertID: cmd.AlertID, Success: &ok})
	case CmdResolveAlert:
		metrics.CommandsReceived.WithLabelValues(cmd.Type).Inc()
		ok := s.resolveAlert(cmd.AlertID, cmd.UserID)
		s.sendStatus(sess, Status{Type: StatusAlertResolved, AlertID: cmd.AlertID, Success: &ok})
	case CmdUserRequest:
		metrics.CommandsReceived.WithLabelValues(cmd.Type).Inc()
		s.handleUserRequest(ctx, sess, cmd)
	default:
		metrics.CommandsReceived.WithLabelValues("unknown").Inc()
		s.sendStatus(sess, Status{Type: StatusError, Message: fmt.Sprintf("Unknown message type: %s", cmd.Type)})
	}
}

// acknowledgeAlert applies the command and, on success, broadcasts the
// resulting state change as a domain event.
func (s *Server) acknowledgeAlert(id, userID string) bool {
	alert, ok := s.state.AcknowledgeAlert(id)
	if !ok {
		return false
	}
	if _, err := s.commands.EmitForUser(event.AlertAcknowledged, alert.AlertID, alert.Payload(), userID); err != nil {
		slog.Error("alert_acknowledged publish failed", "alert_id", id, "error", err)
	}
	return true
}

// resolveAlert additionally triggers a metric refresh so every
// dashboard sees the alert totals move together with the resolution.
func (s *Server) resolveAlert(id, userID string) bool {
	alert, ok := s.state.ResolveAlert(id)
	if !ok {
		return false
	}
	if _, err := s.commands.EmitForUser(event.AlertResolved, alert.AlertID, alert.Payload(), userID); err != nil {
		slog.Error("alert_resolved publish failed", "alert_id", id, "error", err)
	}
	if s.metricsPub != nil {
		s.metricsPub.PublishNow()
	}
	return true
}

// handleUserRequest streams orchestrator progress back to the
// requester only; any domain events the request causes reach everyone
// through the broadcaster.
func (s *Server) handleUserRequest(ctx context.Context, sess *Session, cmd Command) {
	if s.orch == nil {
		s.sendStatus(sess, Status{Type: StatusError, Message: "Agent system not available"})
		return
	}

	req := UserRequest{Input: cmd.UserInput, Context: cmd.Context, UserID: cmd.UserID}
	stream, err := s.orch.StreamRequest(ctx, req)
	if err != nil {
		s.sendStatus(sess, Status{Type: StatusError, Message: fmt.Sprintf("Processing error: %v", err)})
		return
	}

	go func() {
		for st := range stream {
			s.sendStatus(sess, st)
		}
	}()
}

func (s *Server) sendStatus(sess *Session, st Status) {
	if st.Timestamp.IsZero() {
		st.Timestamp = s.clock.Now()
	}
	data, err := json.Marshal(st)
	if err != nil {
		slog.Error("status marshal failed", "status_type", st.Type, "error", err)
		return
	}
	deliver(sess, data)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.state.Data())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":            "healthy",
		"monitoring_active": s.monitoringActive,
		"active_alerts":     s.state.Counts().Active,
		"subscribers":       s.registry.Count(),
	})
}

func (s *Server) handleAlertRoutes(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Parse: /api/alerts/{id}/acknowledge or /api/alerts/{id}/resolve
	path := strings.TrimPrefix(r.URL.Path, "/api/alerts/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	alertID, err := url.PathUnescape(parts[0])
	if err != nil {
		http.Error(w, "invalid alert id", http.StatusBadRequest)
		return
	}

	var action func(id, userID string) bool
	switch parts[1] {
	case "acknowledge":
		action = s.acknowledgeAlert
	case "resolve":
		action = s.resolveAlert
	default:
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !action(alertID, "") {
		http.Error(w, "alert not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) authorize(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	if r.URL.Query().Get("token") == s.authToken {
		return true
	}

	if r.Header.Get("X-Chainwatch-Token") == s.authToken {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.authToken {
		return true
	}

	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	slog.Info("server listening", "addr", addr)
	return http.ListenAndServe(addr, mux)
}
