package event

import (
	"encoding/json"
	"testing"
	"time"
)

func TestKnown(t *testing.T) {
	for _, typ := range []Type{
		ItemAdded, ItemRemoved, ItemUpdated, FieldChanged,
		AlertRaised, AlertAcknowledged, AlertResolved, MetricSnapshot,
	} {
		if !Known(typ) {
			t.Errorf("Known(%q) = false, want true", typ)
		}
	}
	if Known(Type("order_shipped_to_mars")) {
		t.Error("Known accepted an undefined type")
	}
}

func TestEntityScoped(t *testing.T) {
	if EntityScoped(MetricSnapshot) {
		t.Error("metric_snapshot must not require a target id")
	}
	if !EntityScoped(ItemAdded) {
		t.Error("item_added must require a target id")
	}
}

func TestMarshalWireShape(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	ev := Event{
		Type:      AlertRaised,
		TargetID:  "ALERT-0042",
		Payload:   map[string]any{"severity": "high"},
		EmittedAt: ts,
		Origin:    "alert_monitor",
		UserID:    "ops-7",
	}

	raw, err := ev.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var frame map[string]any
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}

	for key, want := range map[string]any{
		"event_type": "alert_raised",
		"item_id":    "ALERT-0042",
		"agent_id":   "alert_monitor",
		"user_id":    "ops-7",
	} {
		if frame[key] != want {
			t.Errorf("frame[%q] = %v, want %v", key, frame[key], want)
		}
	}
	if _, ok := frame["timestamp"]; !ok {
		t.Error("frame missing timestamp")
	}
	data, ok := frame["data"].(map[string]any)
	if !ok || data["severity"] != "high" {
		t.Errorf("frame data = %v, want severity high", frame["data"])
	}
}

func TestMarshalOmitsEmptyUser(t *testing.T) {
	ev := Event{Type: MetricSnapshot, Origin: "metrics_reporter", EmittedAt: time.Now()}
	raw, err := ev.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if _, ok := frame["user_id"]; ok {
		t.Error("empty user_id should be omitted from the frame")
	}
}
