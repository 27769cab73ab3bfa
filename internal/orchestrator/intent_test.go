package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeIntent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Intent
	}{
		{
			name:  "inventory keywords",
			input: "show me low stock items",
			want:  Intent{PrimaryIntent: IntentInventory},
		},
		{
			name:  "inventory wins over forecasting and sets the flag",
			input: "predict reorder needs",
			want:  Intent{PrimaryIntent: IntentInventory, NeedsForecasting: true},
		},
		{
			name:  "inventory with supplier recommendations",
			input: "recommend a supplier for stock refills",
			want:  Intent{PrimaryIntent: IntentInventory, NeedsSupplierRecommendations: true},
		},
		{
			name:  "forecasting",
			input: "forecast demand for next month",
			want:  Intent{PrimaryIntent: IntentForecasting},
		},
		{
			name:  "supplier with logistics optimization",
			input: "vendor shipping performance",
			want:  Intent{PrimaryIntent: IntentSupplier, NeedsLogisticsOptimization: true},
		},
		{
			name:  "complex request routes to general",
			input: "analyze inventory strategy",
			want:  Intent{PrimaryIntent: IntentGeneral, ComplexRequest: true},
		},
		{
			name:  "no keywords",
			input: "hello there",
			want:  Intent{PrimaryIntent: IntentGeneral},
		},
		{
			name:  "matching is case insensitive",
			input: "LOW STOCK report",
			want:  Intent{PrimaryIntent: IntentInventory},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeIntent(tt.input))
		})
	}
}
