// Package dashboard holds the business state behind the streaming core:
// the live alert book and the metric figures that back get_dashboard_data
// snapshots. The streaming layer treats all of it as payload.
package dashboard

import "time"

type AlertType string

const (
	LowStock            AlertType = "low_stock"
	OutOfStock          AlertType = "out_of_stock"
	ShippingDelay       AlertType = "shipping_delay"
	SupplierIssue       AlertType = "supplier_issue"
	QualityIssue        AlertType = "quality_issue"
	DemandSurge         AlertType = "demand_surge"
	PriceChange         AlertType = "price_change"
	DeliveryDelay       AlertType = "delivery_delay"
	InventoryAnomaly    AlertType = "inventory_anomaly"
	SupplierPerformance AlertType = "supplier_performance"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from low (0) to critical (3) for sorting.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

type Alert struct {
	AlertID            string      `json:"alert_id"`
	AlertType          AlertType   `json:"alert_type"`
	Severity           Severity    `json:"severity"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	AffectedItems      []string    `json:"affected_items"`
	AffectedSuppliers  []string    `json:"affected_suppliers"`
	Timestamp          time.Time   `json:"timestamp"`
	EstimatedImpact    string      `json:"estimated_impact"`
	RecommendedActions []string    `json:"recommended_actions"`
	Status             AlertStatus `json:"status"`
	PriorityScore      int         `json:"priority_score"`
}

// Payload renders the alert as an event payload map.
func (a Alert) Payload() map[string]any {
	return map[string]any{
		"alert_id":            a.AlertID,
		"alert_type":          string(a.AlertType),
		"severity":            string(a.Severity),
		"title":               a.Title,
		"description":         a.Description,
		"affected_items":      a.AffectedItems,
		"affected_suppliers":  a.AffectedSuppliers,
		"timestamp":           a.Timestamp.Format(time.RFC3339),
		"estimated_impact":    a.EstimatedImpact,
		"recommended_actions": a.RecommendedActions,
		"status":              string(a.Status),
		"priority_score":      a.PriorityScore,
	}
}

// AlertSummary is the short alert shape used in history listings.
type AlertSummary struct {
	AlertID   string      `json:"alert_id"`
	AlertType AlertType   `json:"alert_type"`
	Severity  Severity    `json:"severity"`
	Title     string      `json:"title"`
	Timestamp time.Time   `json:"timestamp"`
	Status    AlertStatus `json:"status"`
}
