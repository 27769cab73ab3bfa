// Package alerts renders the active alert panel for the chainwatch
// dashboard.
package alerts

import (
	"fmt"
	"strings"

	"github.com/chainwatch/chainwatch/internal/dashboard"
	"github.com/chainwatch/chainwatch/internal/tui/theme"
	"github.com/charmbracelet/lipgloss"
)

// Model holds the alert panel state. Selected is the cursor row; the
// root model owns cursor movement.
type Model struct {
	Width    int
	Selected int
	alerts   []dashboard.Alert
}

// New creates an alert panel model.
func New() Model {
	return Model{}
}

// SetAlerts replaces the panel contents. Callers pass the active book
// already ordered by priority.
func (m *Model) SetAlerts(alerts []dashboard.Alert) {
	m.alerts = alerts
}

// Len reports how many alerts the panel holds.
func (m Model) Len() int {
	return len(m.alerts)
}

// SelectedAlert returns the alert under the cursor.
func (m Model) SelectedAlert() (dashboard.Alert, bool) {
	if m.Selected < 0 || m.Selected >= len(m.alerts) {
		return dashboard.Alert{}, false
	}
	return m.alerts[m.Selected], true
}

// View renders the alert panel.
func (m Model) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).
		Render("  Active Alerts")

	if len(m.alerts) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			theme.StyleDimmed.Render("  No active alerts"),
		)
	}

	width := m.Width
	if width < 40 {
		width = 40
	}

	// Column widths (fixed layout).
	colSeverity := 10
	colType := 20
	colTitle := 34
	colStatus := 13
	colScore := 5

	dimStyle := lipgloss.NewStyle().Foreground(theme.ColorDimmed)

	tableHeader := fmt.Sprintf("    %-*s %-*s %-*s %-*s %*s",
		colSeverity, "Severity",
		colType, "Type",
		colTitle, "Title",
		colStatus, "Status",
		colScore, "Score",
	)
	lines := []string{
		header,
		dimStyle.Render(tableHeader),
		dimStyle.Render("  " + strings.Repeat("─", min(width-4, colSeverity+colType+colTitle+colStatus+colScore+6))),
	}

	for i, a := range m.alerts {
		prefix := "  "
		if i == m.Selected {
			prefix = theme.StyleSelected.Render("> ")
		}

		sev := string(a.Severity)
		sevStr := lipgloss.NewStyle().Foreground(theme.SeverityColor(sev)).
			Width(colSeverity).Render(theme.SeverityGlyph(sev) + " " + sev)

		typeStr := lipgloss.NewStyle().Width(colType).
			Render(truncate(string(a.AlertType), colType-1))

		title := a.Title
		titleStyle := lipgloss.NewStyle().Width(colTitle)
		if i == m.Selected {
			titleStyle = titleStyle.Bold(true).Foreground(theme.ColorBright)
		}
		titleStr := titleStyle.Render(truncate(title, colTitle-1))

		st := string(a.Status)
		stStr := lipgloss.NewStyle().Foreground(theme.AlertStatusColor(st)).
			Width(colStatus).Render(st)

		scoreStr := dimStyle.Width(colScore).Align(lipgloss.Right).
			Render(fmt.Sprintf("%d", a.PriorityScore))

		lines = append(lines, prefix+sevStr+" "+typeStr+" "+titleStr+" "+stStr+" "+scoreStr)
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
