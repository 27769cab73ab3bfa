// Package status renders the connection and stream health bar at the
// top of the chainwatch dashboard.
package status

import (
	"fmt"

	"github.com/chainwatch/chainwatch/internal/client"
	"github.com/chainwatch/chainwatch/internal/tui/theme"
	"github.com/charmbracelet/lipgloss"
)

// Model holds the status bar state.
type Model struct {
	State      client.ConnState
	Items      int
	Alerts     int
	StaleDrops int
	Width      int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// SetCounts updates the item and alert counts.
func (m *Model) SetCounts(items, alerts, staleDrops int) {
	m.Items = items
	m.Alerts = alerts
	m.StaleDrops = staleDrops
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch m.State {
	case client.StateConnected:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	case client.StateConnecting:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("○ Connecting...")
	default:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Disconnected")
	}

	counts := fmt.Sprintf("%d orders  %d alerts", m.Items, m.Alerts)

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + counts
	if m.StaleDrops > 0 {
		content += sep + theme.StyleDimmed.Render(fmt.Sprintf("%d stale dropped", m.StaleDrops))
	}

	bar := lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)

	return bar
}
