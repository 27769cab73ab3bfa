package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAlert(id string, sev Severity, typ AlertType) Alert {
	return Alert{
		AlertID:   id,
		AlertType: typ,
		Severity:  sev,
		Title:     "Test alert " + id,
		Timestamp: time.Now(),
		Status:    AlertActive,
	}
}

func TestAcknowledgeKeepsAlertActive(t *testing.T) {
	s := NewState()
	s.RaiseAlert(testAlert("a1", SeverityMedium, LowStock))

	got, ok := s.AcknowledgeAlert("a1")
	require.True(t, ok)
	assert.Equal(t, AlertAcknowledged, got.Status)

	d := s.Data()
	require.Len(t, d.ActiveAlerts, 1)
	assert.Equal(t, AlertAcknowledged, d.ActiveAlerts[0].Status)
}

func TestResolveRemovesFromActiveButNotHistory(t *testing.T) {
	s := NewState()
	s.RaiseAlert(testAlert("a1", SeverityHigh, ShippingDelay))
	s.RaiseAlert(testAlert("a2", SeverityLow, PriceChange))

	got, ok := s.ResolveAlert("a1")
	require.True(t, ok)
	assert.Equal(t, AlertResolved, got.Status)

	d := s.Data()
	require.Len(t, d.ActiveAlerts, 1)
	assert.Equal(t, "a2", d.ActiveAlerts[0].AlertID)

	// History keeps the resolved entry, with its final status.
	require.Len(t, d.AlertHistory, 2)
	assert.Equal(t, AlertResolved, d.AlertHistory[0].Status)
}

func TestUnknownAlertID(t *testing.T) {
	s := NewState()
	_, ok := s.AcknowledgeAlert("ghost")
	assert.False(t, ok)
	_, ok = s.ResolveAlert("ghost")
	assert.False(t, ok)
}

func TestHistoryTrimsToLimit(t *testing.T) {
	s := NewState()
	for i := 0; i < historyLimit+10; i++ {
		s.RaiseAlert(testAlert(fmt.Sprintf("a%03d", i), SeverityLow, QualityIssue))
	}

	d := s.Data()
	require.Len(t, d.AlertHistory, historyLimit)
	assert.Equal(t, "a010", d.AlertHistory[0].AlertID, "oldest entries are dropped first")
}

func TestCounts(t *testing.T) {
	s := NewState()
	s.RaiseAlert(testAlert("a1", SeverityCritical, LowStock))
	s.RaiseAlert(testAlert("a2", SeverityMedium, LowStock))
	s.RaiseAlert(testAlert("a3", SeverityHigh, OutOfStock))

	c := s.Counts()
	assert.Equal(t, 3, c.Active)
	assert.Equal(t, 1, c.Critical)
	assert.Equal(t, 2, c.LowStock)
	assert.Equal(t, 1, c.OutOfStock)
}

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
}
