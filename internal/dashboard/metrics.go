package dashboard

import "time"

// Metrics is the headline figure set shown at the top of the dashboard.
type Metrics struct {
	TotalItems          int     `json:"total_items"`
	LowStockItems       int     `json:"low_stock_items"`
	OutOfStockItems     int     `json:"out_of_stock_items"`
	ActiveAlerts        int     `json:"active_alerts"`
	CriticalAlerts      int     `json:"critical_alerts"`
	OnTimeDeliveries    float64 `json:"on_time_deliveries"`
	SupplierPerformance float64 `json:"supplier_performance"`
	InventoryValue      float64 `json:"inventory_value"`
	CostSavings         float64 `json:"cost_savings"`
	ServerCPUPercent    float64 `json:"server_cpu_percent"`
	ServerMemoryPercent float64 `json:"server_memory_percent"`
}

// Payload renders the metrics as an event payload map.
func (m Metrics) Payload(at time.Time) map[string]any {
	return map[string]any{
		"total_items":           m.TotalItems,
		"low_stock_items":       m.LowStockItems,
		"out_of_stock_items":    m.OutOfStockItems,
		"active_alerts":         m.ActiveAlerts,
		"critical_alerts":       m.CriticalAlerts,
		"on_time_deliveries":    m.OnTimeDeliveries,
		"supplier_performance":  m.SupplierPerformance,
		"inventory_value":       m.InventoryValue,
		"cost_savings":          m.CostSavings,
		"server_cpu_percent":    m.ServerCPUPercent,
		"server_memory_percent": m.ServerMemoryPercent,
		"timestamp":             at.Format(time.RFC3339),
	}
}
