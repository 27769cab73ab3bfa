// Package orders renders the live order table for the chainwatch
// dashboard.
package orders

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chainwatch/chainwatch/internal/client"
	"github.com/chainwatch/chainwatch/internal/tui/theme"
	"github.com/charmbracelet/lipgloss"
)

// maxRows bounds the table so a busy stream cannot push the alert panel
// off screen.
const maxRows = 12

// Model holds the order table state.
type Model struct {
	Width int
	items []client.Item
}

// New creates an order table model.
func New() Model {
	return Model{}
}

// SetItems replaces the table contents. The table sorts its own copy,
// newest first, so callers need not pre-sort.
func (m *Model) SetItems(items map[string]client.Item) {
	m.items = make([]client.Item, 0, len(items))
	for _, it := range items {
		m.items = append(m.items, it)
	}
	sort.Slice(m.items, func(i, j int) bool {
		if !m.items[i].AppliedAt.Equal(m.items[j].AppliedAt) {
			return m.items[i].AppliedAt.After(m.items[j].AppliedAt)
		}
		return m.items[i].TargetID < m.items[j].TargetID
	})
}

// Len reports how many orders the table holds.
func (m Model) Len() int {
	return len(m.items)
}

// View renders the order table.
func (m Model) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).
		Render("  Orders")

	if len(m.items) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			theme.StyleDimmed.Render("  No orders yet"),
		)
	}

	width := m.Width
	if width < 40 {
		width = 40
	}

	// Column widths (fixed layout).
	colID := 16
	colSupplier := 24
	colQty := 5
	colAmount := 11
	colStatus := 11
	colPriority := 8
	colUpdated := 8

	dimStyle := lipgloss.NewStyle().Foreground(theme.ColorDimmed)
	brightStyle := lipgloss.NewStyle().Foreground(theme.ColorBright)

	tableHeader := fmt.Sprintf("  %-*s %-*s %*s %*s %-*s %-*s %-*s",
		colID, "ID",
		colSupplier, "Supplier",
		colQty, "Qty",
		colAmount, "Amount",
		colStatus, "Status",
		colPriority, "Priority",
		colUpdated, "Updated",
	)
	lines := []string{
		header,
		dimStyle.Render(tableHeader),
		dimStyle.Render("  " + strings.Repeat("─", min(width-4, colID+colSupplier+colQty+colAmount+colStatus+colPriority+colUpdated+6))),
	}

	shown := m.items
	if len(shown) > maxRows {
		shown = shown[:maxRows]
	}

	for _, it := range shown {
		idStr := brightStyle.Width(colID).Render(truncate(it.TargetID, colID-1))
		supStr := lipgloss.NewStyle().Width(colSupplier).
			Render(truncate(fieldString(it.Fields, "supplier"), colSupplier-1))
		qtyStr := brightStyle.Width(colQty).Align(lipgloss.Right).
			Render(fmt.Sprintf("%d", fieldInt(it.Fields, "quantity")))
		amtStr := brightStyle.Width(colAmount).Align(lipgloss.Right).
			Render(formatAmount(fieldFloat(it.Fields, "total_amount"), fieldString(it.Fields, "currency")))

		st := fieldString(it.Fields, "status")
		stStr := lipgloss.NewStyle().Foreground(theme.OrderStatusColor(st)).
			Width(colStatus).Render(st)

		prio := fieldString(it.Fields, "priority")
		prioStr := lipgloss.NewStyle().Foreground(theme.PriorityColor(prio)).
			Width(colPriority).Render(prio)

		updStr := dimStyle.Render(it.AppliedAt.Format("15:04:05"))

		lines = append(lines, fmt.Sprintf("  %s %s %s %s %s %s %s",
			idStr, supStr, qtyStr, amtStr, stStr, prioStr, updStr))
	}

	if extra := len(m.items) - len(shown); extra > 0 {
		lines = append(lines, theme.StyleDimmed.Render(fmt.Sprintf("  … and %d more", extra)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// truncate shortens s to at most max characters, marking the cut with
// an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}

// fieldString reads a string field from an item payload.
func fieldString(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

// fieldInt reads a numeric field from an item payload. JSON decoding
// yields float64 for every number.
func fieldInt(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func fieldFloat(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// formatAmount formats a monetary amount with K/M suffixes.
func formatAmount(v float64, currency string) string {
	var num string
	switch {
	case v >= 1_000_000:
		num = fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 1_000:
		num = fmt.Sprintf("%.1fK", v/1_000)
	default:
		num = fmt.Sprintf("%.0f", v)
	}
	if currency == "" {
		return num
	}
	return num + " " + currency
}
