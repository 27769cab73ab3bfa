package producer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chainwatch/chainwatch/internal/dashboard"
	"github.com/chainwatch/chainwatch/internal/event"
)

var (
	alertProducts  = []string{"Product A", "Product B", "Product C", "Product D", "Product E"}
	alertSuppliers = []string{"TechCorp Solutions", "Global Parts Inc", "Budget Suppliers Ltd"}
	shipmentIDs    = []string{"SHIP-001", "SHIP-002", "SHIP-003", "SHIP-004"}
	carriers       = []string{"FedEx", "UPS", "DHL", "USPS"}
	supplierIssues = []string{"Quality issues", "Delivery delays", "Communication problems", "Price increases"}
)

// AlertMonitor watches the (simulated) supply chain and raises alerts.
// Each check runs on its own cadence and fires probabilistically, so the
// stream has an uneven, organic rhythm. Every raised alert is recorded
// in the dashboard state, published as an alert_raised event, and
// followed by a metric refresh.
type AlertMonitor struct {
	state   *dashboard.State
	adapter *Adapter
	metrics *MetricsPublisher
	clock   clockwork.Clock
	roll    func() float64
}

func NewAlertMonitor(state *dashboard.State, adapter *Adapter, metrics *MetricsPublisher, clock clockwork.Clock) *AlertMonitor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AlertMonitor{
		state:   state,
		adapter: adapter,
		metrics: metrics,
		clock:   clock,
		roll:    rand.Float64,
	}
}

// Start launches one monitoring loop per check; all stop when ctx is
// cancelled.
func (m *AlertMonitor) Start(ctx context.Context) {
	go m.loop(ctx, 5*time.Second, 0.30, m.lowStockAlert)
	go m.loop(ctx, 10*time.Second, 0.20, m.shippingDelayAlert)
	go m.loop(ctx, 15*time.Second, 0.15, m.supplierAlert)
	go m.loop(ctx, 20*time.Second, 0.10, m.demandSurgeAlert)
	go m.loop(ctx, 30*time.Second, 0.05, m.priceChangeAlert)
}

func (m *AlertMonitor) loop(ctx context.Context, interval time.Duration, chance float64, gen func() dashboard.Alert) {
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if m.roll() >= chance {
				continue
			}
			m.raise(gen())
		}
	}
}

func (m *AlertMonitor) raise(a dashboard.Alert) {
	m.state.RaiseAlert(a)
	if _, err := m.adapter.Emit(event.AlertRaised, a.AlertID, a.Payload()); err != nil {
		slog.Error("alert publish failed", "alert_id", a.AlertID, "error", err)
		return
	}
	slog.Info("alert raised", "alert_id", a.AlertID, "alert_type", a.AlertType, "severity", a.Severity)
	if m.metrics != nil {
		m.metrics.PublishNow()
	}
}

func (m *AlertMonitor) alertID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, m.clock.Now().UnixMilli())
}

func (m *AlertMonitor) lowStockAlert() dashboard.Alert {
	product := alertProducts[rand.Intn(len(alertProducts))]
	supplier := alertSuppliers[rand.Intn(len(alertSuppliers))]

	return dashboard.Alert{
		AlertID:           m.alertID("low_stock"),
		AlertType:         dashboard.LowStock,
		Severity:          dashboard.SeverityMedium,
		Title:             fmt.Sprintf("Low Stock Alert: %s", product),
		Description:       fmt.Sprintf("%s is running low on stock. Current level: %d units", product, 5+rand.Intn(11)),
		AffectedItems:     []string{product},
		AffectedSuppliers: []string{supplier},
		Timestamp:         m.clock.Now(),
		EstimatedImpact:   fmt.Sprintf("Potential stockout in %d days", 2+rand.Intn(6)),
		RecommendedActions: []string{
			fmt.Sprintf("Reorder %s from %s", product, supplier),
			"Consider alternative suppliers",
			"Review demand forecasting",
		},
		Status:        dashboard.AlertActive,
		PriorityScore: 60 + rand.Intn(21),
	}
}

func (m *AlertMonitor) shippingDelayAlert() dashboard.Alert {
	shipment := shipmentIDs[rand.Intn(len(shipmentIDs))]
	carrier := carriers[rand.Intn(len(carriers))]
	delayDays := 1 + rand.Intn(5)

	return dashboard.Alert{
		AlertID:           m.alertID("shipping_delay"),
		AlertType:         dashboard.ShippingDelay,
		Severity:          dashboard.SeverityHigh,
		Title:             fmt.Sprintf("Shipping Delay: %s", shipment),
		Description:       fmt.Sprintf("Shipment %s via %s is delayed by %d days", shipment, carrier, delayDays),
		AffectedItems:     []string{shipment},
		AffectedSuppliers: []string{carrier},
		Timestamp:         m.clock.Now(),
		EstimatedImpact:   fmt.Sprintf("Delivery delayed by %d days", delayDays),
		RecommendedActions: []string{
			fmt.Sprintf("Contact %s for updated tracking", carrier),
			"Notify customers of delay",
			"Consider expedited shipping for critical items",
		},
		Status:        dashboard.AlertActive,
		PriorityScore: 70 + rand.Intn(21),
	}
}

func (m *AlertMonitor) supplierAlert() dashboard.Alert {
	supplier := alertSuppliers[rand.Intn(len(alertSuppliers))]
	issue := supplierIssues[rand.Intn(len(supplierIssues))]

	return dashboard.Alert{
		AlertID:           m.alertID("supplier"),
		AlertType:         dashboard.SupplierIssue,
		Severity:          dashboard.SeverityMedium,
		Title:             fmt.Sprintf("Supplier Issue: %s", supplier),
		Description:       fmt.Sprintf("%s is experiencing %s", supplier, strings.ToLower(issue)),
		AffectedItems:     []string{},
		AffectedSuppliers: []string{supplier},
		Timestamp:         m.clock.Now(),
		EstimatedImpact:   "Potential supply chain disruption",
		RecommendedActions: []string{
			fmt.Sprintf("Contact %s for resolution", supplier),
			"Activate backup suppliers",
			"Review supplier performance metrics",
		},
		Status:        dashboard.AlertActive,
		PriorityScore: 50 + rand.Intn(26),
	}
}

func (m *AlertMonitor) demandSurgeAlert() dashboard.Alert {
	product := alertProducts[rand.Intn(3)]
	surge := 150 + rand.Intn(151)

	return dashboard.Alert{
		AlertID:           m.alertID("demand_surge"),
		AlertType:         dashboard.DemandSurge,
		Severity:          dashboard.SeverityHigh,
		Title:             fmt.Sprintf("Demand Surge: %s", product),
		Description:       fmt.Sprintf("%s demand increased by %d%%", product, surge),
		AffectedItems:     []string{product},
		AffectedSuppliers: []string{},
		Timestamp:         m.clock.Now(),
		EstimatedImpact:   "Potential stockout risk",
		RecommendedActions: []string{
			fmt.Sprintf("Increase %s inventory levels", product),
			"Contact suppliers for additional capacity",
			"Review pricing strategy",
		},
		Status:        dashboard.AlertActive,
		PriorityScore: 80 + rand.Intn(16),
	}
}

func (m *AlertMonitor) priceChangeAlert() dashboard.Alert {
	product := alertProducts[rand.Intn(3)]
	change := rand.Intn(41) - 20
	direction := "increased"
	if change < 0 {
		direction = "decreased"
	}
	if change < 0 {
		change = -change
	}

	return dashboard.Alert{
		AlertID:           m.alertID("price_change"),
		AlertType:         dashboard.PriceChange,
		Severity:          dashboard.SeverityLow,
		Title:             fmt.Sprintf("Price Change: %s", product),
		Description:       fmt.Sprintf("%s price %s by %d%%", product, direction, change),
		AffectedItems:     []string{product},
		AffectedSuppliers: []string{},
		Timestamp:         m.clock.Now(),
		EstimatedImpact:   fmt.Sprintf("Cost impact: %d%%", change),
		RecommendedActions: []string{
			"Review pricing strategy",
			"Update cost calculations",
			"Communicate changes to stakeholders",
		},
		Status:        dashboard.AlertActive,
		PriorityScore: 30 + rand.Intn(31),
	}
}
