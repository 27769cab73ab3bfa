package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/chainwatch/internal/event"
	"github.com/chainwatch/chainwatch/internal/producer"
	"github.com/chainwatch/chainwatch/internal/ws"
)

type captureSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *captureSink) Publish(ev event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureSink) all() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.events...)
}

func newTestEngine(clock clockwork.Clock) (*RuleBased, *captureSink) {
	sink := &captureSink{}
	return NewRuleBased(producer.NewAdapter("inventory_agent", sink, clock), clock), sink
}

func collect(stream <-chan ws.Status) []ws.Status {
	var statuses []ws.Status
	for st := range stream {
		statuses = append(statuses, st)
	}
	return statuses
}

func stageTypes(statuses []ws.Status) []string {
	types := make([]string, len(statuses))
	for i, st := range statuses {
		types[i] = st.Type
	}
	return types
}

func TestStreamRequestRejectsEmptyInput(t *testing.T) {
	engine, _ := newTestEngine(clockwork.NewFakeClock())

	stream, err := engine.StreamRequest(context.Background(), ws.UserRequest{Input: "   "})
	require.ErrorIs(t, err, ErrEmptyRequest)
	assert.Nil(t, stream)
}

func TestStreamInventoryAddFlow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	engine, sink := newTestEngine(clock)

	stream, err := engine.StreamRequest(context.Background(), ws.UserRequest{
		Input:  "add new stock items",
		UserID: "user-7",
		Context: map[string]any{
			"inventory_data": []any{
				map[string]any{"id": "itm-1", "name": "Widget", "current_stock": float64(0), "min_stock": float64(5), "reorder_point": float64(10)},
				map[string]any{"id": "itm-2", "name": "Gadget", "current_stock": float64(50), "min_stock": float64(5), "reorder_point": float64(10)},
			},
		},
	})
	require.NoError(t, err)

	statuses := collect(stream)
	require.Equal(t, []string{
		StageStart, StageIntentAnalysis, StageInventoryAnalysis, StageAnalysisResults,
		StageItemCreation, StageItemAdded, StageItemAdded, StageItemAdded,
	}, stageTypes(statuses))

	assert.Equal(t, "Detected intent: inventory_management", statuses[1].Message)
	assert.Equal(t, Intent{PrimaryIntent: IntentInventory}, statuses[1].Intent)

	assert.Equal(t, "Found 1 low stock items", statuses[3].Message)
	data, ok := statuses[3].Data.(map[string]any)
	require.True(t, ok)
	low, ok := data["low_stock_items"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, low, 1)
	assert.Equal(t, "itm-1", low[0]["item_id"])
	assert.Equal(t, "high", low[0]["urgency"])
	out, ok := data["out_of_stock_items"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, "critical", out[0]["impact"])

	events := sink.all()
	require.Len(t, events, 3)
	for i, ev := range events {
		added := statuses[5+i]
		assert.Equal(t, event.ItemAdded, ev.Type)
		assert.Equal(t, "inventory_agent", ev.Origin)
		assert.Equal(t, "user-7", ev.UserID)
		assert.Equal(t, added.ItemID, ev.TargetID)
		assert.True(t, strings.HasPrefix(ev.TargetID, "item_"))
		assert.Equal(t, "TechCorp Solutions", ev.Payload["supplier"])
		assert.Equal(t, "Added item: "+ev.Payload["name"].(string), added.Message)
	}
}

func TestStreamInventoryRemoveFlow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	engine, sink := newTestEngine(clock)

	stream, err := engine.StreamRequest(context.Background(), ws.UserRequest{
		Input:  "remove obsolete inventory",
		UserID: "user-3",
	})
	require.NoError(t, err)

	statuses := collect(stream)
	require.Equal(t, []string{
		StageStart, StageIntentAnalysis, StageInventoryAnalysis, StageAnalysisResults,
		StageItemRemoval, StageItemRemoved, StageItemRemoved,
	}, stageTypes(statuses))

	assert.Equal(t, "Found 0 low stock items", statuses[3].Message)
	assert.Equal(t, "item_to_remove_0", statuses[5].ItemID)
	assert.Equal(t, "Removed item: item_to_remove_0", statuses[5].Message)
	assert.Equal(t, "item_to_remove_1", statuses[6].ItemID)

	events := sink.all()
	require.Len(t, events, 2)
	for i, ev := range events {
		assert.Equal(t, event.ItemRemoved, ev.Type)
		assert.Equal(t, statuses[5+i].ItemID, ev.TargetID)
		assert.Equal(t, "user-3", ev.UserID)
		assert.Equal(t, map[string]any{"reason": "User requested removal"}, ev.Payload)
	}
}

func TestStreamSupplierFlow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	engine, sink := newTestEngine(clock)

	stream, err := engine.StreamRequest(context.Background(), ws.UserRequest{
		Input: "review supplier performance",
		Context: map[string]any{
			"supplier_data": []any{
				map[string]any{
					"id":                    "sup-1",
					"name":                  "TechCorp Solutions",
					"delivery_time":         float64(5),
					"on_time_delivery_rate": float64(95),
					"reliability_score":     0.9,
				},
			},
		},
	})
	require.NoError(t, err)

	statuses := collect(stream)
	require.Equal(t, []string{StageStart, StageIntentAnalysis, StageSupplierAnalysis, StageSupplierResults}, stageTypes(statuses))
	assert.Equal(t, "Supplier analysis completed", statuses[3].Message)

	data := statuses[3].Data.(map[string]any)
	performance := data["supplier_performance"].(map[string]any)
	entry, ok := performance["sup-1"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "TechCorp Solutions", entry["supplier_name"])
	assert.Equal(t, 0.93, entry["overall_score"])
	assert.Equal(t, "excellent", entry["performance_tier"])

	assert.Empty(t, sink.all(), "analysis flows publish no domain events")
}

func TestStreamForecastingFlow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	engine, _ := newTestEngine(clock)

	stream, err := engine.StreamRequest(context.Background(), ws.UserRequest{
		Input: "forecast demand",
		Context: map[string]any{
			"historical_data": []any{
				map[string]any{
					"id":                "itm-9",
					"name":              "Widget",
					"historical_demand": []any{float64(10), float64(10), float64(10), float64(20), float64(20), float64(20)},
				},
				map[string]any{
					"id":                "itm-short",
					"name":              "Sparse",
					"historical_demand": []any{float64(4), float64(5)},
				},
			},
		},
	})
	require.NoError(t, err)

	statuses := collect(stream)
	require.Equal(t, []string{StageStart, StageIntentAnalysis, StageForecastAnalysis, StageForecastResults}, stageTypes(statuses))

	forecasts := statuses[3].Data.(map[string]any)["demand_forecasts"].(map[string]any)
	require.Contains(t, forecasts, "itm-9")
	assert.NotContains(t, forecasts, "itm-short", "items with short history are skipped")

	entry := forecasts["itm-9"].(map[string]any)
	assert.Equal(t, 20.0, entry["forecast"])
	assert.Equal(t, "increasing", entry["trend"])
}

func TestStreamGeneralFlowPacing(t *testing.T) {
	clock := clockwork.NewFakeClock()
	engine, sink := newTestEngine(clock)

	stream, err := engine.StreamRequest(context.Background(), ws.UserRequest{Input: "hello"})
	require.NoError(t, err)

	require.Equal(t, StageStart, (<-stream).Type)
	require.Equal(t, StageIntentAnalysis, (<-stream).Type)
	require.Equal(t, StageGeneralProcessing, (<-stream).Type)

	clock.BlockUntil(1)
	select {
	case st := <-stream:
		t.Fatalf("unexpected frame before processing delay: %+v", st)
	default:
	}

	clock.Advance(time.Second)
	require.Equal(t, StageGeneralComplete, (<-stream).Type)
	_, open := <-stream
	assert.False(t, open, "stream should close after completion")
	assert.Empty(t, sink.all())
}

func TestStreamStopsOnContextCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	engine, _ := newTestEngine(clock)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := engine.StreamRequest(ctx, ws.UserRequest{Input: "hello"})
	require.NoError(t, err)

	require.Equal(t, StageStart, (<-stream).Type)
	require.Equal(t, StageIntentAnalysis, (<-stream).Type)
	require.Equal(t, StageGeneralProcessing, (<-stream).Type)

	clock.BlockUntil(1)
	cancel()

	_, open := <-stream
	assert.False(t, open, "stream should close without the final frame")
}
