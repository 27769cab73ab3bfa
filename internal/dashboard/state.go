package dashboard

import (
	"sync"

	"github.com/chainwatch/chainwatch/internal/metrics"
)

const historyLimit = 50

// Data is the full snapshot returned for get_dashboard_data.
type Data struct {
	Metrics      Metrics        `json:"metrics"`
	ActiveAlerts []Alert        `json:"active_alerts"`
	AlertHistory []AlertSummary `json:"alert_history"`
}

// AlertCounts summarises the live alert book for metric refreshes.
type AlertCounts struct {
	Active     int
	Critical   int
	LowStock   int
	OutOfStock int
}

// State is the shared dashboard bookkeeping. Alerts are appended by the
// alert monitor and mutated by acknowledge/resolve commands; everything
// handed out is a copy.
type State struct {
	mu      sync.RWMutex
	active  []*Alert
	history []*Alert
	metrics Metrics
}

func NewState() *State {
	return &State{}
}

// RaiseAlert records a new active alert. History keeps the most recent
// entries only; there is no durable log.
func (s *State) RaiseAlert(a Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := a
	s.active = append(s.active, &stored)
	s.history = append(s.history, &stored)
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}
	metrics.ActiveAlerts.Set(float64(len(s.active)))
}

// AcknowledgeAlert marks an active alert acknowledged. It reports false
// when no active alert has that id. Acknowledged alerts stay active.
func (s *State) AcknowledgeAlert(id string) (Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.active {
		if a.AlertID == id {
			a.Status = AlertAcknowledged
			return *a, true
		}
	}
	return Alert{}, false
}

// ResolveAlert marks an alert resolved and drops it from the active set.
// The history entry keeps the resolved status.
func (s *State) ResolveAlert(id string) (Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.active {
		if a.AlertID == id {
			a.Status = AlertResolved
			s.active = append(s.active[:i], s.active[i+1:]...)
			metrics.ActiveAlerts.Set(float64(len(s.active)))
			return *a, true
		}
	}
	return Alert{}, false
}

// SetMetrics stores the latest metric refresh.
func (s *State) SetMetrics(m Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

func (s *State) Metrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

// Counts reports alert totals used when recomputing metrics.
func (s *State) Counts() AlertCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := AlertCounts{Active: len(s.active)}
	for _, a := range s.active {
		if a.Severity == SeverityCritical {
			c.Critical++
		}
		switch a.AlertType {
		case LowStock:
			c.LowStock++
		case OutOfStock:
			c.OutOfStock++
		}
	}
	return c
}

// Data assembles the snapshot served for get_dashboard_data.
func (s *State) Data() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := Data{
		Metrics:      s.metrics,
		ActiveAlerts: make([]Alert, 0, len(s.active)),
		AlertHistory: make([]AlertSummary, 0, len(s.history)),
	}
	for _, a := range s.active {
		d.ActiveAlerts = append(d.ActiveAlerts, *a)
	}
	for _, a := range s.history {
		d.AlertHistory = append(d.AlertHistory, AlertSummary{
			AlertID:   a.AlertID,
			AlertType: a.AlertType,
			Severity:  a.Severity,
			Title:     a.Title,
			Timestamp: a.Timestamp,
			Status:    a.Status,
		})
	}
	return d
}
