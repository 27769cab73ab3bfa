package producer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chainwatch/chainwatch/internal/event"
)

var (
	suppliers = []string{
		"TechCorp Solutions", "Global Parts Inc", "Budget Suppliers Ltd",
		"Premium Components", "FastTrack Logistics", "Reliable Systems",
	}

	productNames = []string{
		"Microprocessors", "Memory chips", "Circuit boards", "Steel components",
		"Aluminum parts", "Plastic materials", "Electronic sensors",
		"Power supplies", "Cables", "Connectors",
	}

	orderStatuses = []string{"pending", "confirmed", "processing", "shipped", "delivered", "delayed", "cancelled"}

	regions = []string{"North America", "Europe", "Asia Pacific", "South America", "Africa"}
)

// orderPattern shapes the mix of generated traffic. Frequencies are
// cumulative selection weights and sum to 1.
type orderPattern struct {
	name         string
	frequency    float64
	priority     string
	deliveryDays int
}

var orderPatterns = []orderPattern{
	{"rush_orders", 0.10, "urgent", 1},
	{"bulk_orders", 0.15, "medium", 7},
	{"regular_orders", 0.60, "medium", 3},
	{"premium_orders", 0.10, "high", 2},
	{"delayed_orders", 0.05, "low", 14},
}

var orderNoteTemplates = map[string][]string{
	"rush_orders": {
		"Express delivery required",
		"Customer emergency order",
		"Expedited processing needed",
		"Rush shipment requested",
	},
	"bulk_orders": {
		"Volume discount applied",
		"Bulk shipment processing",
		"Large quantity order",
		"Wholesale pricing",
	},
	"regular_orders": {
		"Standard processing",
		"Normal delivery timeline",
		"Regular order processing",
		"Standard shipment",
	},
	"premium_orders": {
		"Premium service requested",
		"High-priority customer",
		"VIP processing",
		"Premium delivery",
	},
	"delayed_orders": {
		"Backorder processing",
		"Delayed shipment",
		"Inventory shortage",
		"Extended lead time",
	},
}

// Order is one generated purchase order. It is published as the payload
// of an item_added event targeting the order id.
type Order struct {
	ID               string    `json:"id"`
	Supplier         string    `json:"supplier"`
	Products         []string  `json:"products"`
	Quantity         int       `json:"quantity"`
	TotalAmount      float64   `json:"total_amount"`
	Currency         string    `json:"currency"`
	Status           string    `json:"status"`
	Priority         string    `json:"priority"`
	Region           string    `json:"region"`
	OrderDate        time.Time `json:"order_date"`
	ExpectedDelivery time.Time `json:"expected_delivery"`
	TrackingNumber   string    `json:"tracking_number"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"created_at"`
	PatternType      string    `json:"pattern_type"`
}

// Payload renders the order as an event payload map.
func (o Order) Payload() map[string]any {
	return map[string]any{
		"id":                o.ID,
		"supplier":          o.Supplier,
		"products":          o.Products,
		"quantity":          o.Quantity,
		"total_amount":      o.TotalAmount,
		"currency":          o.Currency,
		"status":            o.Status,
		"priority":          o.Priority,
		"region":            o.Region,
		"order_date":        o.OrderDate.Format(time.RFC3339),
		"expected_delivery": o.ExpectedDelivery.Format(time.RFC3339),
		"tracking_number":   o.TrackingNumber,
		"notes":             o.Notes,
		"created_at":        o.CreatedAt.Format(time.RFC3339),
		"pattern_type":      o.PatternType,
	}
}

// OrderStreamer publishes batches of generated orders at a randomised
// cadence.
type OrderStreamer struct {
	adapter     *Adapter
	clock       clockwork.Clock
	minInterval time.Duration
	maxInterval time.Duration
}

func NewOrderStreamer(adapter *Adapter, clock clockwork.Clock, minInterval, maxInterval time.Duration) *OrderStreamer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if minInterval <= 0 {
		minInterval = 2 * time.Second
	}
	if maxInterval < minInterval {
		maxInterval = minInterval
	}
	return &OrderStreamer{
		adapter:     adapter,
		clock:       clock,
		minInterval: minInterval,
		maxInterval: maxInterval,
	}
}

// Start launches the streaming loop; it stops when ctx is cancelled.
func (o *OrderStreamer) Start(ctx context.Context) {
	go o.run(ctx)
}

func (o *OrderStreamer) run(ctx context.Context) {
	for {
		batch := 1 + rand.Intn(3)
		for i := 0; i < batch; i++ {
			ord := o.generateOrder()
			if _, err := o.adapter.Emit(event.ItemAdded, ord.ID, ord.Payload()); err != nil {
				slog.Error("order publish failed", "order_id", ord.ID, "error", err)
			}
		}
		slog.Debug("order batch published", "size", batch)

		wait := o.minInterval
		if o.maxInterval > o.minInterval {
			wait += time.Duration(rand.Int63n(int64(o.maxInterval - o.minInterval)))
		}
		select {
		case <-ctx.Done():
			return
		case <-o.clock.After(wait):
		}
	}
}

func (o *OrderStreamer) generateOrder() Order {
	p := pickPattern(rand.Float64())
	now := o.clock.Now()

	// Rush orders cost more, low-priority bulk backlog costs less.
	amount := 100 + rand.Float64()*4900
	switch p.priority {
	case "urgent":
		amount *= 1.5
	case "low":
		amount *= 0.7
	}

	expected := now.AddDate(0, 0, p.deliveryDays)
	if rand.Float64() < 0.1 {
		expected = expected.AddDate(0, 0, 1+rand.Intn(7))
	}

	count := 1 + rand.Intn(5)
	perm := rand.Perm(len(productNames))
	products := make([]string, count)
	for i := range products {
		products[i] = productNames[perm[i]]
	}

	return Order{
		ID:               fmt.Sprintf("ORD-%d-%d", now.Unix(), 1000+rand.Intn(9000)),
		Supplier:         suppliers[rand.Intn(len(suppliers))],
		Products:         products,
		Quantity:         1 + rand.Intn(100),
		TotalAmount:      math.Round(amount*100) / 100,
		Currency:         "USD",
		Status:           orderStatuses[rand.Intn(len(orderStatuses))],
		Priority:         p.priority,
		Region:           regions[rand.Intn(len(regions))],
		OrderDate:        now.Add(-time.Duration(rand.Intn(25)) * time.Hour),
		ExpectedDelivery: expected,
		TrackingNumber:   fmt.Sprintf("TRK%d", 100000+rand.Intn(900000)),
		Notes:            orderNotes(p.name),
		CreatedAt:        now,
		PatternType:      p.name,
	}
}

func pickPattern(roll float64) orderPattern {
	cumulative := 0.0
	for _, p := range orderPatterns {
		cumulative += p.frequency
		if roll <= cumulative {
			return p
		}
	}
	return orderPatterns[2] // regular_orders
}

func orderNotes(pattern string) string {
	notes, ok := orderNoteTemplates[pattern]
	if !ok {
		return "Standard order"
	}
	return notes[rand.Intn(len(notes))]
}
