package client

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/chainwatch/internal/dashboard"
	"github.com/chainwatch/chainwatch/internal/event"
)

func rawPayload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func itemEvent(t *testing.T, typ event.Type, target string, at int64, fields map[string]any) WireEvent {
	t.Helper()
	return WireEvent{
		Type:      typ,
		TargetID:  target,
		Data:      rawPayload(t, fields),
		EmittedAt: time.Unix(at, 0).UTC(),
		AgentID:   "order_generator",
	}
}

func testAlert(id string, priority int) dashboard.Alert {
	return dashboard.Alert{
		AlertID:            id,
		AlertType:          dashboard.LowStock,
		Severity:           dashboard.SeverityMedium,
		Title:              "Low Stock Alert: Product A",
		Description:        "Product A is running low on stock",
		AffectedItems:      []string{"Product A"},
		AffectedSuppliers:  []string{"TechCorp Solutions"},
		Timestamp:          time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		EstimatedImpact:    "Potential stockout in 3 days",
		RecommendedActions: []string{"Reorder Product A"},
		Status:             dashboard.AlertActive,
		PriorityScore:      priority,
	}
}

func alertEvent(t *testing.T, typ event.Type, a dashboard.Alert, at int64) WireEvent {
	t.Helper()
	return WireEvent{
		Type:      typ,
		TargetID:  a.AlertID,
		Data:      rawPayload(t, a.Payload()),
		EmittedAt: time.Unix(at, 0).UTC(),
		AgentID:   "alert_monitor",
	}
}

func TestApplyInsertsMergesAndRemoves(t *testing.T) {
	r := NewReconciler()

	applied, err := r.Apply(itemEvent(t, event.ItemAdded, "ORD-1", 1, map[string]any{
		"name":   "Product A",
		"status": "pending",
	}))
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = r.Apply(itemEvent(t, event.ItemUpdated, "ORD-1", 2, map[string]any{
		"status": "shipped",
	}))
	require.NoError(t, err)
	assert.True(t, applied)

	snap := r.Snapshot()
	require.Contains(t, snap.Items, "ORD-1")
	assert.Equal(t, "Product A", snap.Items["ORD-1"].Fields["name"], "merge keeps untouched fields")
	assert.Equal(t, "shipped", snap.Items["ORD-1"].Fields["status"])
	assert.Equal(t, time.Unix(2, 0).UTC(), snap.Items["ORD-1"].AppliedAt)

	applied, err = r.Apply(itemEvent(t, event.ItemRemoved, "ORD-1", 3, nil))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Empty(t, r.Snapshot().Items)
}

func TestApplySameEventTwiceIsIdempotent(t *testing.T) {
	r := NewReconciler()
	ev := itemEvent(t, event.ItemAdded, "ORD-7", 5, map[string]any{"name": "Product B"})

	applied, err := r.Apply(ev)
	require.NoError(t, err)
	require.True(t, applied)
	first := r.Snapshot()

	applied, err = r.Apply(ev)
	require.NoError(t, err)
	assert.False(t, applied)

	second := r.Snapshot()
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, 1, second.StaleDrops)
}

func TestApplyOutOfOrderIsDropped(t *testing.T) {
	r := NewReconciler()

	_, err := r.Apply(itemEvent(t, event.ItemAdded, "ORD-2", 5, map[string]any{"name": "new"}))
	require.NoError(t, err)

	applied, err := r.Apply(itemEvent(t, event.ItemAdded, "ORD-2", 3, map[string]any{"name": "old"}))
	require.NoError(t, err)
	assert.False(t, applied)

	snap := r.Snapshot()
	assert.Equal(t, "new", snap.Items["ORD-2"].Fields["name"])
	assert.Equal(t, 1, snap.StaleDrops)
}

func TestRemovalBlocksStragglerUpdates(t *testing.T) {
	r := NewReconciler()

	_, err := r.Apply(itemEvent(t, event.ItemAdded, "ORD-3", 1, map[string]any{"name": "Product C"}))
	require.NoError(t, err)
	_, err = r.Apply(itemEvent(t, event.ItemRemoved, "ORD-3", 3, nil))
	require.NoError(t, err)

	applied, err := r.Apply(itemEvent(t, event.ItemUpdated, "ORD-3", 2, map[string]any{"status": "shipped"}))
	require.NoError(t, err)
	assert.False(t, applied, "update emitted before the removal must not resurrect the item")
	assert.Empty(t, r.Snapshot().Items)
}

func TestAlertReducers(t *testing.T) {
	r := NewReconciler()
	a := testAlert("low_stock_1", 70)

	_, err := r.Apply(alertEvent(t, event.AlertRaised, a, 1))
	require.NoError(t, err)

	snap := r.Snapshot()
	require.Len(t, snap.ActiveAlerts, 1)
	assert.Equal(t, a, snap.ActiveAlerts[0])
	require.Len(t, snap.AlertHistory, 1)
	assert.Equal(t, dashboard.AlertActive, snap.AlertHistory[0].Status)

	a.Status = dashboard.AlertAcknowledged
	_, err = r.Apply(alertEvent(t, event.AlertAcknowledged, a, 2))
	require.NoError(t, err)

	snap = r.Snapshot()
	require.Len(t, snap.ActiveAlerts, 1)
	assert.Equal(t, dashboard.AlertAcknowledged, snap.ActiveAlerts[0].Status)
	assert.Equal(t, dashboard.AlertAcknowledged, snap.AlertHistory[0].Status)

	a.Status = dashboard.AlertResolved
	_, err = r.Apply(alertEvent(t, event.AlertResolved, a, 3))
	require.NoError(t, err)

	snap = r.Snapshot()
	assert.Empty(t, snap.ActiveAlerts)
	require.Len(t, snap.AlertHistory, 1)
	assert.Equal(t, dashboard.AlertResolved, snap.AlertHistory[0].Status)
}

func TestActiveAlertsSortByPriority(t *testing.T) {
	r := NewReconciler()

	low := testAlert("alert_low", 40)
	high := testAlert("alert_high", 90)
	_, err := r.Apply(alertEvent(t, event.AlertRaised, low, 1))
	require.NoError(t, err)
	_, err = r.Apply(alertEvent(t, event.AlertRaised, high, 2))
	require.NoError(t, err)

	snap := r.Snapshot()
	require.Len(t, snap.ActiveAlerts, 2)
	assert.Equal(t, "alert_high", snap.ActiveAlerts[0].AlertID)
	assert.Equal(t, "alert_low", snap.ActiveAlerts[1].AlertID)
}

func TestMetricSnapshotReplacesMetrics(t *testing.T) {
	r := NewReconciler()
	m := dashboard.Metrics{TotalItems: 250, ActiveAlerts: 3, OnTimeDeliveries: 91.5}

	ev := WireEvent{
		Type:      event.MetricSnapshot,
		Data:      rawPayload(t, m.Payload(time.Unix(10, 0).UTC())),
		EmittedAt: time.Unix(10, 0).UTC(),
		AgentID:   "metrics_reporter",
	}
	applied, err := r.Apply(ev)
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, m, r.Snapshot().Metrics)

	// An older snapshot must not roll the figures back.
	stale := dashboard.Metrics{TotalItems: 1}
	applied, err = r.Apply(WireEvent{
		Type:      event.MetricSnapshot,
		Data:      rawPayload(t, stale.Payload(time.Unix(5, 0).UTC())),
		EmittedAt: time.Unix(5, 0).UTC(),
		AgentID:   "metrics_reporter",
	})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, m, r.Snapshot().Metrics)
}

func TestApplySnapshotRebuildsAlertBookAndKeepsItems(t *testing.T) {
	r := NewReconciler()

	_, err := r.Apply(itemEvent(t, event.ItemAdded, "ORD-9", 1, map[string]any{"name": "Product D"}))
	require.NoError(t, err)

	a := testAlert("supplier_2", 55)
	r.ApplySnapshot(dashboard.Data{
		Metrics:      dashboard.Metrics{TotalItems: 123},
		ActiveAlerts: []dashboard.Alert{a},
		AlertHistory: []dashboard.AlertSummary{{AlertID: a.AlertID, Status: dashboard.AlertActive}},
	})

	snap := r.Snapshot()
	assert.Contains(t, snap.Items, "ORD-9", "stream-derived items survive a snapshot")
	require.Len(t, snap.ActiveAlerts, 1)
	assert.Equal(t, a, snap.ActiveAlerts[0])
	assert.Equal(t, 123, snap.Metrics.TotalItems)
}

func TestApplyDecodeErrorLeavesStateAndStamp(t *testing.T) {
	r := NewReconciler()

	bad := WireEvent{
		Type:      event.AlertRaised,
		TargetID:  "alert_bad",
		Data:      json.RawMessage(`[1,2,3]`),
		EmittedAt: time.Unix(5, 0).UTC(),
	}
	applied, err := r.Apply(bad)
	require.Error(t, err)
	assert.False(t, applied)
	assert.Empty(t, r.Snapshot().ActiveAlerts)

	// The failed apply must not have stamped the target: an older but
	// valid event still goes through.
	a := testAlert("alert_bad", 60)
	applied, err = r.Apply(alertEvent(t, event.AlertRaised, a, 4))
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestApplyUnknownEventType(t *testing.T) {
	r := NewReconciler()

	_, err := r.Apply(WireEvent{Type: "mystery", TargetID: "x", EmittedAt: time.Unix(1, 0)})
	require.Error(t, err)
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewReconciler()
	_, err := r.Apply(itemEvent(t, event.ItemAdded, "ORD-5", 1, map[string]any{"name": "Product E"}))
	require.NoError(t, err)

	snap := r.Snapshot()
	snap.Items["ORD-5"].Fields["name"] = "mutated"
	snap.AlertHistory = append(snap.AlertHistory, dashboard.AlertSummary{AlertID: "x"})

	fresh := r.Snapshot()
	assert.Equal(t, "Product E", fresh.Items["ORD-5"].Fields["name"])
	assert.Empty(t, fresh.AlertHistory)
}
