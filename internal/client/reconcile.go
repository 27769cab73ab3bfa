package client

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chainwatch/chainwatch/internal/dashboard"
	"github.com/chainwatch/chainwatch/internal/event"
)

const alertHistoryLimit = 50

// Item is one reconciled entity projection: merged payload fields plus
// the stamp of the newest event applied to it.
type Item struct {
	TargetID  string
	Fields    map[string]any
	AppliedAt time.Time
}

// Snapshot is a render-ready copy of the reconciled state. Mutating it
// does not affect the reconciler.
type Snapshot struct {
	Items        map[string]Item
	ActiveAlerts []dashboard.Alert
	AlertHistory []dashboard.AlertSummary
	Metrics      dashboard.Metrics
	StaleDrops   int
}

// Reconciler folds the event stream into local dashboard state. For
// each target only events newer than the last applied one take effect,
// so duplicates and out-of-order stragglers drop out instead of
// regressing the state. Removal keeps the target's staleness stamp, so
// a late update cannot resurrect a deleted entity.
type Reconciler struct {
	mu      sync.Mutex
	items   map[string]Item
	applied map[string]time.Time
	active  map[string]dashboard.Alert
	history []dashboard.AlertSummary
	metrics dashboard.Metrics
	stale   int
}

func NewReconciler() *Reconciler {
	return &Reconciler{
		items:   make(map[string]Item),
		applied: make(map[string]time.Time),
		active:  make(map[string]dashboard.Alert),
	}
}

// Apply runs the reducer for ev and reports whether the state changed.
// Stale and duplicate events return (false, nil) and are counted. A
// payload that fails to decode leaves both the state and the staleness
// stamp untouched.
func (r *Reconciler) Apply(ev WireEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if last, ok := r.applied[ev.TargetID]; ok && !last.Before(ev.EmittedAt) {
		r.stale++
		return false, nil
	}

	if err := r.reduce(ev); err != nil {
		return false, err
	}
	r.applied[ev.TargetID] = ev.EmittedAt
	return true, nil
}

func (r *Reconciler) reduce(ev WireEvent) error {
	switch ev.Type {
	case event.ItemAdded:
		fields, err := DecodeItem(ev.Data)
		if err != nil {
			return err
		}
		r.items[ev.TargetID] = Item{TargetID: ev.TargetID, Fields: fields, AppliedAt: ev.EmittedAt}

	case event.ItemRemoved:
		delete(r.items, ev.TargetID)

	case event.ItemUpdated, event.FieldChanged:
		fields, err := DecodeItem(ev.Data)
		if err != nil {
			return err
		}
		item, ok := r.items[ev.TargetID]
		if !ok {
			item = Item{TargetID: ev.TargetID, Fields: make(map[string]any)}
		}
		for k, v := range fields {
			item.Fields[k] = v
		}
		item.AppliedAt = ev.EmittedAt
		r.items[ev.TargetID] = item

	case event.AlertRaised, event.AlertAcknowledged:
		a, err := DecodeAlert(ev.Data)
		if err != nil {
			return err
		}
		r.active[a.AlertID] = a
		r.recordHistory(a)

	case event.AlertResolved:
		a, err := DecodeAlert(ev.Data)
		if err != nil {
			return err
		}
		delete(r.active, a.AlertID)
		r.recordHistory(a)

	case event.MetricSnapshot:
		m, err := DecodeMetrics(ev.Data)
		if err != nil {
			return err
		}
		r.metrics = m

	default:
		return fmt.Errorf("client: unknown event type %q", ev.Type)
	}
	return nil
}

// recordHistory upserts the alert's history entry, keeping the most
// recent entries only.
func (r *Reconciler) recordHistory(a dashboard.Alert) {
	summary := dashboard.AlertSummary{
		AlertID:   a.AlertID,
		AlertType: a.AlertType,
		Severity:  a.Severity,
		Title:     a.Title,
		Timestamp: a.Timestamp,
		Status:    a.Status,
	}
	for i := range r.history {
		if r.history[i].AlertID == a.AlertID {
			r.history[i] = summary
			return
		}
	}
	r.history = append(r.history, summary)
	if len(r.history) > alertHistoryLimit {
		r.history = r.history[len(r.history)-alertHistoryLimit:]
	}
}

// ApplySnapshot replaces the alert book and metrics with a fresh
// dashboard_data reply. Item projections are kept: they are derived
// from the stream and the server snapshot does not carry them.
func (r *Reconciler) ApplySnapshot(d dashboard.Data) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active = make(map[string]dashboard.Alert, len(d.ActiveAlerts))
	for _, a := range d.ActiveAlerts {
		r.active[a.AlertID] = a
	}
	r.history = append([]dashboard.AlertSummary(nil), d.AlertHistory...)
	r.metrics = d.Metrics
}

// Snapshot copies the current state. Active alerts come out ordered by
// priority so rendering is stable.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Items:        make(map[string]Item, len(r.items)),
		ActiveAlerts: make([]dashboard.Alert, 0, len(r.active)),
		AlertHistory: append([]dashboard.AlertSummary(nil), r.history...),
		Metrics:      r.metrics,
		StaleDrops:   r.stale,
	}
	for id, item := range r.items {
		fields := make(map[string]any, len(item.Fields))
		for k, v := range item.Fields {
			fields[k] = v
		}
		item.Fields = fields
		snap.Items[id] = item
	}
	for _, a := range r.active {
		snap.ActiveAlerts = append(snap.ActiveAlerts, a)
	}
	sort.Slice(snap.ActiveAlerts, func(i, j int) bool {
		if snap.ActiveAlerts[i].PriorityScore != snap.ActiveAlerts[j].PriorityScore {
			return snap.ActiveAlerts[i].PriorityScore > snap.ActiveAlerts[j].PriorityScore
		}
		return snap.ActiveAlerts[i].AlertID < snap.ActiveAlerts[j].AlertID
	})
	return snap
}
