package orchestrator

import "math"

// The analysis helpers below evaluate whatever records the client
// attached to its request context. Records arrive JSON-decoded, so
// everything is maps and float64s; malformed entries are skipped rather
// than failing the whole request.

// analyzeStock flags low and out-of-stock inventory records.
func analyzeStock(raw any) map[string]any {
	low := []map[string]any{}
	out := []map[string]any{}

	for _, rec := range asRecords(raw) {
		current := asInt(rec["current_stock"])
		minStock := asInt(rec["min_stock"])
		reorder := asInt(rec["reorder_point"])

		if current <= reorder {
			urgency := "medium"
			if current <= minStock {
				urgency = "high"
			}
			low = append(low, map[string]any{
				"item_id":       rec["id"],
				"name":          rec["name"],
				"current_stock": current,
				"reorder_point": reorder,
				"urgency":       urgency,
			})
		}
		if current == 0 {
			out = append(out, map[string]any{
				"item_id": rec["id"],
				"name":    rec["name"],
				"impact":  "critical",
			})
		}
	}

	return map[string]any{
		"low_stock_items":    low,
		"out_of_stock_items": out,
	}
}

// analyzeSuppliers scores each supplier on delivery speed, on-time rate
// and reliability, and buckets the result into a performance tier.
func analyzeSuppliers(raw any) map[string]any {
	performance := map[string]any{}

	for _, rec := range asRecords(raw) {
		id, _ := rec["id"].(string)
		if id == "" {
			continue
		}

		timeScore := math.Max(0, 100-asFloat(rec["delivery_time"]))
		onTime := asFloat(rec["on_time_delivery_rate"])
		delivery := (timeScore*0.6 + onTime*0.4) / 100
		reliability := asFloat(rec["reliability_score"])
		overall := round2(delivery*0.6 + reliability*0.4)

		performance[id] = map[string]any{
			"supplier_name":     rec["name"],
			"overall_score":     overall,
			"delivery_score":    round2(delivery),
			"reliability_score": reliability,
			"performance_tier":  performanceTier(overall),
		}
	}

	return map[string]any{"supplier_performance": performance}
}

func performanceTier(score float64) string {
	switch {
	case score >= 0.9:
		return "excellent"
	case score >= 0.8:
		return "good"
	case score >= 0.6:
		return "average"
	default:
		return "poor"
	}
}

// analyzeDemand builds a moving-average forecast per item. Items with
// fewer than three demand samples carry too little signal and are left
// out, matching the stock analysts' rule of thumb.
func analyzeDemand(raw any) map[string]any {
	forecasts := map[string]any{}

	for _, rec := range asRecords(raw) {
		id, _ := rec["id"].(string)
		history := asFloats(rec["historical_demand"])
		if id == "" || len(history) < 3 {
			continue
		}

		recent := history[len(history)-3:]
		forecasts[id] = map[string]any{
			"item_name": rec["name"],
			"forecast":  round2(mean(recent)),
			"trend":     detectTrend(history),
		}
	}

	return map[string]any{"demand_forecasts": forecasts}
}

func detectTrend(history []float64) string {
	recent := mean(history[len(history)-3:])
	earlier := mean(history[:3])
	switch {
	case recent > earlier*1.1:
		return "increasing"
	case recent < earlier*0.9:
		return "decreasing"
	default:
		return "stable"
	}
}

func asRecords(raw any) []map[string]any {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	records := make([]map[string]any, 0, len(list))
	for _, it := range list {
		if rec, ok := it.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func asFloats(v any) []float64 {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	vals := make([]float64, 0, len(list))
	for _, it := range list {
		vals = append(vals, asFloat(it))
	}
	return vals
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
