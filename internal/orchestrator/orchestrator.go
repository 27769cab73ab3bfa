// Package orchestrator turns free-form user requests into staged
// progress streams and the domain events those requests imply. The
// rule-based engine stands where a fleet of analysis agents would sit in
// a larger deployment; the streaming contract is the part the rest of
// the system depends on.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chainwatch/chainwatch/internal/event"
	"github.com/chainwatch/chainwatch/internal/producer"
	"github.com/chainwatch/chainwatch/internal/ws"
)

// Stage type tags emitted over the lifetime of one streamed request.
const (
	StageStart             = "start"
	StageIntentAnalysis    = "intent_analysis"
	StageInventoryAnalysis = "inventory_analysis"
	StageAnalysisResults   = "analysis_results"
	StageItemCreation      = "item_creation"
	StageItemAdded         = "item_added"
	StageItemRemoval       = "item_removal"
	StageItemRemoved       = "item_removed"
	StageSupplierAnalysis  = "supplier_analysis"
	StageSupplierResults   = "supplier_results"
	StageForecastAnalysis  = "forecasting_analysis"
	StageForecastResults   = "forecast_results"
	StageGeneralProcessing = "general_processing"
	StageGeneralComplete   = "general_complete"
)

const (
	createdItemCount = 3
	removedItemCount = 2
)

// ErrEmptyRequest rejects a user_request with no input text.
var ErrEmptyRequest = errors.New("orchestrator: empty user input")

type sendFunc func(ws.Status) bool

// RuleBased processes user requests with keyword classification and
// canned operations. Item mutations are published twice on purpose: as a
// progress frame on the requester's stream and as a domain event through
// the adapter, so every connected dashboard converges on the change.
type RuleBased struct {
	adapter *producer.Adapter
	clock   clockwork.Clock

	// processingDelay paces the general flow so a dashboard shows the
	// request in flight rather than completing instantly.
	processingDelay time.Duration
}

// NewRuleBased creates the engine publishing through adapter. A nil
// clock selects the real one.
func NewRuleBased(adapter *producer.Adapter, clock clockwork.Clock) *RuleBased {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RuleBased{adapter: adapter, clock: clock, processingDelay: time.Second}
}

// StreamRequest starts processing req and returns the progress stream.
// The channel closes once the request is fully processed; cancelling ctx
// stops the stream early.
func (o *RuleBased) StreamRequest(ctx context.Context, req ws.UserRequest) (<-chan ws.Status, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, ErrEmptyRequest
	}

	out := make(chan ws.Status, 16)
	go o.run(ctx, req, out)
	return out, nil
}

func (o *RuleBased) run(ctx context.Context, req ws.UserRequest, out chan<- ws.Status) {
	defer close(out)

	send := func(st ws.Status) bool {
		st.Timestamp = o.clock.Now()
		select {
		case out <- st:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !send(ws.Status{Type: StageStart, Message: "Processing your request..."}) {
		return
	}

	intent := AnalyzeIntent(req.Input)
	if !send(ws.Status{Type: StageIntentAnalysis, Intent: intent, Message: "Detected intent: " + intent.PrimaryIntent}) {
		return
	}

	switch intent.PrimaryIntent {
	case IntentInventory:
		o.runInventory(req, send)
	case IntentSupplier:
		o.runSupplier(req, send)
	case IntentForecasting:
		o.runForecasting(req, send)
	default:
		o.runGeneral(ctx, send)
	}

	slog.Debug("user request processed", "intent", intent.PrimaryIntent, "user_id", req.UserID)
}

func (o *RuleBased) runInventory(req ws.UserRequest, send sendFunc) {
	if !send(ws.Status{Type: StageInventoryAnalysis, Message: "Analyzing current inventory levels..."}) {
		return
	}

	analysis := analyzeStock(req.Context["inventory_data"])
	low, _ := analysis["low_stock_items"].([]map[string]any)
	if !send(ws.Status{
		Type:    StageAnalysisResults,
		Data:    analysis,
		Message: fmt.Sprintf("Found %d low stock items", len(low)),
	}) {
		return
	}

	lower := strings.ToLower(req.Input)
	if strings.Contains(lower, "add") || strings.Contains(lower, "create") {
		if !o.createItems(req, send) {
			return
		}
	}
	if strings.Contains(lower, "remove") || strings.Contains(lower, "delete") {
		o.removeItems(req, send)
	}
}

func (o *RuleBased) createItems(req ws.UserRequest, send sendFunc) bool {
	if !send(ws.Status{Type: StageItemCreation, Message: "Creating new inventory items..."}) {
		return false
	}

	now := o.clock.Now()
	for i := 0; i < createdItemCount; i++ {
		id := fmt.Sprintf("item_%d_%d", now.UnixMilli(), i)
		name := fmt.Sprintf("New Product %d", i+1)
		item := map[string]any{
			"id":            id,
			"name":          name,
			"type":          "inventory",
			"current_stock": 0,
			"min_stock":     10,
			"max_stock":     100,
			"reorder_point": 20,
			"supplier":      "TechCorp Solutions",
			"created_at":    now.Format(time.RFC3339),
		}

		if _, err := o.adapter.EmitForUser(event.ItemAdded, id, item, req.UserID); err != nil {
			slog.Error("item_added publish failed", "item_id", id, "error", err)
			continue
		}
		if !send(ws.Status{Type: StageItemAdded, ItemID: id, Data: item, Message: "Added item: " + name}) {
			return false
		}
	}
	return true
}

func (o *RuleBased) removeItems(req ws.UserRequest, send sendFunc) {
	if !send(ws.Status{Type: StageItemRemoval, Message: "Removing inventory items..."}) {
		return
	}

	for i := 0; i < removedItemCount; i++ {
		id := fmt.Sprintf("item_to_remove_%d", i)
		payload := map[string]any{"reason": "User requested removal"}

		if _, err := o.adapter.EmitForUser(event.ItemRemoved, id, payload, req.UserID); err != nil {
			slog.Error("item_removed publish failed", "item_id", id, "error", err)
			continue
		}
		if !send(ws.Status{Type: StageItemRemoved, ItemID: id, Message: "Removed item: " + id}) {
			return
		}
	}
}

func (o *RuleBased) runSupplier(req ws.UserRequest, send sendFunc) {
	if !send(ws.Status{Type: StageSupplierAnalysis, Message: "Analyzing supplier performance..."}) {
		return
	}
	send(ws.Status{
		Type:    StageSupplierResults,
		Data:    analyzeSuppliers(req.Context["supplier_data"]),
		Message: "Supplier analysis completed",
	})
}

func (o *RuleBased) runForecasting(req ws.UserRequest, send sendFunc) {
	if !send(ws.Status{Type: StageForecastAnalysis, Message: "Running demand forecasting..."}) {
		return
	}
	send(ws.Status{
		Type:    StageForecastResults,
		Data:    analyzeDemand(req.Context["historical_data"]),
		Message: "Demand forecast completed",
	})
}

func (o *RuleBased) runGeneral(ctx context.Context, send sendFunc) {
	if !send(ws.Status{Type: StageGeneralProcessing, Message: "Processing your request..."}) {
		return
	}
	select {
	case <-o.clock.After(o.processingDelay):
	case <-ctx.Done():
		return
	}
	send(ws.Status{Type: StageGeneralComplete, Message: "Request processed successfully"})
}
