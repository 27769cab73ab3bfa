package orchestrator

import "strings"

// Primary intents the keyword rules can produce.
const (
	IntentInventory   = "inventory_management"
	IntentForecasting = "forecasting"
	IntentSupplier    = "supplier_management"
	IntentGeneral     = "general"
)

// Intent is the classification of one user request. It rides on the
// intent_analysis status frame, so the JSON field names are wire shape.
type Intent struct {
	PrimaryIntent                string `json:"primary_intent"`
	NeedsForecasting             bool   `json:"needs_forecasting"`
	NeedsSupplierRecommendations bool   `json:"needs_supplier_recommendations"`
	NeedsLogisticsOptimization   bool   `json:"needs_logistics_optimization"`
	NeedsInventoryIntegration    bool   `json:"needs_inventory_integration"`
	ComplexRequest               bool   `json:"complex_request"`
}

var (
	inventoryKeywords   = []string{"inventory", "stock", "reorder", "low stock", "out of stock"}
	forecastingKeywords = []string{"forecast", "predict", "demand", "trend", "seasonal"}
	supplierKeywords    = []string{"supplier", "vendor", "procurement", "cost", "performance"}
	complexKeywords     = []string{"optimize", "analyze", "comprehensive", "supply chain", "strategy"}
)

// AnalyzeIntent classifies a request with keyword rules. The first
// matching group wins, except that complex requests are always routed
// through the general flow.
func AnalyzeIntent(input string) Intent {
	lower := strings.ToLower(input)
	intent := Intent{PrimaryIntent: IntentGeneral}

	switch {
	case containsAny(lower, inventoryKeywords):
		intent.PrimaryIntent = IntentInventory
		intent.NeedsForecasting = strings.Contains(lower, "forecast") || strings.Contains(lower, "predict")
		intent.NeedsSupplierRecommendations = strings.Contains(lower, "supplier") || strings.Contains(lower, "recommend")
	case containsAny(lower, forecastingKeywords):
		intent.PrimaryIntent = IntentForecasting
		intent.NeedsInventoryIntegration = strings.Contains(lower, "inventory") || strings.Contains(lower, "stock")
	case containsAny(lower, supplierKeywords):
		intent.PrimaryIntent = IntentSupplier
		intent.NeedsLogisticsOptimization = strings.Contains(lower, "shipping") || strings.Contains(lower, "logistics")
	}

	if containsAny(lower, complexKeywords) {
		intent.ComplexRequest = true
		intent.PrimaryIntent = IntentGeneral
	}
	return intent
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
