// Package theme provides the Lip Gloss color palette and reusable styles
// for the chainwatch terminal dashboard. It is a leaf package with no
// internal imports to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Severity colors.
var (
	ColorCritical = lipgloss.Color("#dc2626")
	ColorHigh     = lipgloss.Color("#f59e0b")
	ColorMedium   = lipgloss.Color("#d97706")
	ColorLow      = lipgloss.Color("#22c55e")
)

// Alert lifecycle colors.
var (
	ColorActive       = lipgloss.Color("#ef4444")
	ColorAcknowledged = lipgloss.Color("#d97706")
	ColorResolved     = lipgloss.Color("#16a34a")
)

// Order status colors.
var (
	ColorPending    = lipgloss.Color("#7c3aed")
	ColorConfirmed  = lipgloss.Color("#2563eb")
	ColorProcessing = lipgloss.Color("#3b82f6")
	ColorShipped    = lipgloss.Color("#06b6d4")
	ColorDelivered  = lipgloss.Color("#16a34a")
	ColorDelayed    = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// SeverityColor returns the Lip Gloss color for an alert severity.
func SeverityColor(severity string) lipgloss.Color {
	switch severity {
	case "critical":
		return ColorCritical
	case "high":
		return ColorHigh
	case "medium":
		return ColorMedium
	case "low":
		return ColorLow
	default:
		return ColorDimmed
	}
}

// AlertStatusColor returns the Lip Gloss color for an alert lifecycle
// status.
func AlertStatusColor(status string) lipgloss.Color {
	switch status {
	case "active":
		return ColorActive
	case "acknowledged":
		return ColorAcknowledged
	case "resolved":
		return ColorResolved
	default:
		return ColorDimmed
	}
}

// OrderStatusColor returns the Lip Gloss color for an order status.
func OrderStatusColor(status string) lipgloss.Color {
	switch status {
	case "pending":
		return ColorPending
	case "confirmed":
		return ColorConfirmed
	case "processing":
		return ColorProcessing
	case "shipped":
		return ColorShipped
	case "delivered":
		return ColorDelivered
	case "delayed", "cancelled":
		return ColorDelayed
	default:
		return ColorDimmed
	}
}

// PriorityColor returns the Lip Gloss color for an order priority.
func PriorityColor(priority string) lipgloss.Color {
	switch priority {
	case "urgent":
		return ColorDanger
	case "high":
		return ColorHigh
	case "medium":
		return ColorMedium
	default:
		return ColorDimmed
	}
}

// SeverityGlyph returns a one-column marker for an alert severity.
func SeverityGlyph(severity string) string {
	switch severity {
	case "critical":
		return "‼"
	case "high":
		return "!"
	case "medium":
		return "▲"
	case "low":
		return "·"
	default:
		return " "
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)
)
