package producer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/chainwatch/internal/event"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func patternByName(t *testing.T, name string) orderPattern {
	t.Helper()
	for _, p := range orderPatterns {
		if p.name == name {
			return p
		}
	}
	t.Fatalf("unknown pattern %q", name)
	return orderPattern{}
}

func TestGenerateOrderShape(t *testing.T) {
	o := NewOrderStreamer(NewAdapter("order_generator", &capturePublisher{}, nil), clockwork.NewFakeClock(), 0, 0)

	for i := 0; i < 200; i++ {
		ord := o.generateOrder()

		assert.True(t, strings.HasPrefix(ord.ID, "ORD-"), "id %q", ord.ID)
		assert.True(t, strings.HasPrefix(ord.TrackingNumber, "TRK"))
		assert.Len(t, ord.TrackingNumber, 9)
		assert.Equal(t, "USD", ord.Currency)
		assert.Contains(t, orderStatuses, ord.Status)
		assert.Contains(t, regions, ord.Region)
		assert.NotEmpty(t, ord.Notes)

		require.GreaterOrEqual(t, len(ord.Products), 1)
		require.LessOrEqual(t, len(ord.Products), 5)
		seen := map[string]bool{}
		for _, p := range ord.Products {
			assert.Contains(t, productNames, p)
			assert.False(t, seen[p], "duplicate product %q", p)
			seen[p] = true
		}

		assert.GreaterOrEqual(t, ord.Quantity, 1)
		assert.LessOrEqual(t, ord.Quantity, 100)

		p := patternByName(t, ord.PatternType)
		assert.Equal(t, p.priority, ord.Priority)

		switch ord.Priority {
		case "urgent":
			assert.GreaterOrEqual(t, ord.TotalAmount, 150.0)
			assert.LessOrEqual(t, ord.TotalAmount, 7500.0)
		case "low":
			assert.GreaterOrEqual(t, ord.TotalAmount, 70.0)
			assert.LessOrEqual(t, ord.TotalAmount, 3500.0)
		default:
			assert.GreaterOrEqual(t, ord.TotalAmount, 100.0)
			assert.LessOrEqual(t, ord.TotalAmount, 5000.0)
		}

		assert.False(t, ord.OrderDate.After(ord.CreatedAt))
		assert.True(t, ord.ExpectedDelivery.After(ord.CreatedAt))
	}
}

func TestPickPatternCumulativeWeights(t *testing.T) {
	cases := map[float64]string{
		0.05: "rush_orders",
		0.10: "rush_orders",
		0.11: "bulk_orders",
		0.25: "bulk_orders",
		0.50: "regular_orders",
		0.85: "regular_orders",
		0.90: "premium_orders",
		0.99: "delayed_orders",
	}
	for roll, want := range cases {
		assert.Equal(t, want, pickPattern(roll).name, "roll %v", roll)
	}
}

func TestOrderStreamerPublishesBatches(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := &capturePublisher{}
	o := NewOrderStreamer(NewAdapter("order_generator", sink, clock), clock, 2*time.Second, 2*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	// First batch goes out before the first sleep.
	clock.BlockUntil(1)
	first := len(sink.all())
	require.GreaterOrEqual(t, first, 1)
	require.LessOrEqual(t, first, 3)

	for _, ev := range sink.all() {
		assert.Equal(t, event.ItemAdded, ev.Type)
		assert.Equal(t, "order_generator", ev.Origin)
		assert.Equal(t, ev.Payload["id"], ev.TargetID)
	}

	clock.Advance(2 * time.Second)
	waitFor(t, func() bool { return len(sink.all()) > first })
}
