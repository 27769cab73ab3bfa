// Package tui is the Bubble Tea application for the chainwatch terminal
// dashboard. It renders the client package's reconciled state and turns
// key presses into stream commands.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainwatch/chainwatch/internal/client"
	"github.com/chainwatch/chainwatch/internal/dashboard"
	"github.com/chainwatch/chainwatch/internal/tui/theme"
	"github.com/chainwatch/chainwatch/internal/tui/views/alerts"
	"github.com/chainwatch/chainwatch/internal/tui/views/orders"
	"github.com/chainwatch/chainwatch/internal/tui/views/status"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// streamMsg wraps one client update for the Bubble Tea loop. ok is
// false once the update channel closes.
type streamMsg struct {
	update client.Update
	ok     bool
}

// waitForUpdate blocks for the next client update. Update re-issues it
// after consuming each message, so exactly one pump command is in
// flight at a time.
func waitForUpdate(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-c.Updates()
		return streamMsg{update: u, ok: ok}
	}
}

// Model is the root Bubble Tea model.
type Model struct {
	client *client.Client
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	// Stream state.
	metrics       dashboard.Metrics
	connState     client.ConnState
	connErr       error
	everConnected bool

	// Navigation.
	selectedIdx int

	// Last command reply or progress message.
	notice    string
	noticeErr bool

	// Sub-views.
	statusBar status.Model
	orders    orders.Model
	alerts    alerts.Model
}

// New creates the root model. The client must not be started yet; Init
// starts it.
func New(c *client.Client) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		client:    c,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		statusBar: status.New(),
		orders:    orders.New(),
		alerts:    alerts.New(),
	}
}

// Init starts the stream client and the update pump.
func (m Model) Init() tea.Cmd {
	m.client.Start(m.ctx)
	return waitForUpdate(m.client)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.orders.Width = msg.Width
		m.alerts.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case streamMsg:
		if !msg.ok {
			// Client shut down for good; keep the last state on screen.
			m.connState = client.StateDisconnected
			m.statusBar.State = m.connState
			return m, nil
		}
		m.apply(msg.update)
		return m, waitForUpdate(m.client)
	}

	return m, nil
}

func (m *Model) apply(u client.Update) {
	switch u := u.(type) {
	case client.ConnectionChanged:
		m.connState = u.State
		m.connErr = u.Err
		m.statusBar.State = u.State
		if u.State == client.StateConnected {
			m.everConnected = true
		}

	case client.SnapshotLoaded:
		m.refresh()

	case client.EventApplied:
		m.refresh()

	case client.StatusReceived:
		m.noteStatus(u.Status)

	case client.DecodeFailed:
		m.notice = "bad frame: " + u.Err.Error()
		m.noticeErr = true
	}
}

// refresh pulls a fresh snapshot into the sub-views.
func (m *Model) refresh() {
	snap := m.client.State()
	m.metrics = snap.Metrics
	m.orders.SetItems(snap.Items)
	m.alerts.SetAlerts(snap.ActiveAlerts)
	if m.selectedIdx >= len(snap.ActiveAlerts) {
		m.selectedIdx = max(0, len(snap.ActiveAlerts)-1)
	}
	m.alerts.Selected = m.selectedIdx
	m.statusBar.SetCounts(len(snap.Items), len(snap.ActiveAlerts), snap.StaleDrops)
}

// noteStatus folds a command reply or progress frame into the notice
// line.
func (m *Model) noteStatus(st client.StatusFrame) {
	switch st.Type {
	case "error":
		m.notice = st.Message
		m.noticeErr = true

	case "alert_acknowledged", "alert_resolved":
		verb := "acknowledged"
		if st.Type == "alert_resolved" {
			verb = "resolved"
		}
		if st.Success != nil && !*st.Success {
			m.notice = fmt.Sprintf("alert %s not found", st.AlertID)
			m.noticeErr = true
			return
		}
		m.notice = fmt.Sprintf("alert %s %s", st.AlertID, verb)
		m.noticeErr = false

	default:
		if st.Message != "" {
			m.notice = st.Message
			m.noticeErr = false
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		if n := m.alerts.Len(); n > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % n
			m.alerts.Selected = m.selectedIdx
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if n := m.alerts.Len(); n > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + n) % n
			m.alerts.Selected = m.selectedIdx
		}
		return m, nil

	case key.Matches(msg, m.keys.Acknowledge):
		if a, ok := m.alerts.SelectedAlert(); ok {
			if err := m.client.AcknowledgeAlert(a.AlertID); err != nil {
				m.notice = "acknowledge failed: " + err.Error()
				m.noticeErr = true
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Resolve):
		if a, ok := m.alerts.SelectedAlert(); ok {
			if err := m.client.ResolveAlert(a.AlertID); err != nil {
				m.notice = "resolve failed: " + err.Error()
				m.noticeErr = true
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if err := m.client.RequestDashboardData(); err != nil {
			m.notice = "refresh failed: " + err.Error()
			m.noticeErr = true
		}
		return m, nil
	}

	return m, nil
}

// View renders the full dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	sections := []string{
		m.statusBar.View(),
	}
	if m.everConnected && m.connState != client.StateConnected {
		sections = append(sections, m.renderDisconnectBanner())
	}
	sections = append(sections,
		m.orders.View(),
		m.alerts.View(),
		m.renderMetricsFooter(),
	)
	if m.notice != "" {
		sections = append(sections, m.renderNotice())
	}
	sections = append(sections, theme.StyleDimmed.Render("  j/k:navigate  a:acknowledge  r:resolve  d:refresh  q:quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderDisconnectBanner is shown while the connection is down. The
// last received data stays on screen underneath it.
func (m Model) renderDisconnectBanner() string {
	label := lipgloss.NewStyle().Foreground(theme.ColorDanger).Bold(true).
		Render("  DISCONNECTED")
	detail := " · Reconnecting... stale data shown"
	if errors.Is(m.connErr, client.ErrRetriesExhausted) {
		detail = " · reconnect attempts exhausted, restart to resume"
	}
	return label + theme.StyleDimmed.Render(detail)
}

// renderMetricsFooter shows the latest metric snapshot in a single row.
func (m Model) renderMetricsFooter() string {
	width := m.width
	if width < 40 {
		width = 40
	}

	statStyle := lipgloss.NewStyle().Padding(0, 1)

	stats := []string{
		statStyle.Foreground(theme.ColorBright).Render(
			fmt.Sprintf("Items: %d", m.metrics.TotalItems)),
		statStyle.Foreground(theme.ColorWarning).Render(
			fmt.Sprintf("Low: %d", m.metrics.LowStockItems)),
		statStyle.Foreground(theme.ColorDanger).Render(
			fmt.Sprintf("Out: %d", m.metrics.OutOfStockItems)),
		statStyle.Foreground(theme.ColorHigh).Render(
			fmt.Sprintf("Alerts: %d/%d crit", m.metrics.ActiveAlerts, m.metrics.CriticalAlerts)),
		statStyle.Foreground(theme.ColorHealthy).Render(
			fmt.Sprintf("On-time: %.1f%%", m.metrics.OnTimeDeliveries)),
		statStyle.Foreground(theme.ColorConfirmed).Render(
			fmt.Sprintf("Supplier: %.1f%%", m.metrics.SupplierPerformance)),
		statStyle.Foreground(theme.ColorDimmed).Render(
			fmt.Sprintf("CPU: %.0f%%  Mem: %.0f%%", m.metrics.ServerCPUPercent, m.metrics.ServerMemoryPercent)),
	}

	content := strings.Join(stats, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render("|"))

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) renderNotice() string {
	style := theme.StyleDimmed
	if m.noticeErr {
		style = lipgloss.NewStyle().Foreground(theme.ColorDanger)
	}
	return style.Render("  " + m.notice)
}
