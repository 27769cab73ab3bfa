package ws

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/chainwatch/chainwatch/internal/event"
	"github.com/chainwatch/chainwatch/internal/metrics"
)

// Broadcaster fans frames out to every registered session. Publish never
// blocks on network I/O: frames are marshalled once and enqueued onto
// each session's own queue; transmission is the session's problem.
type Broadcaster struct {
	registry *Registry
}

func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

// Publish delivers one domain event to all current subscribers. Sessions
// that registered after the call see nothing; there is no backlog.
func (b *Broadcaster) Publish(ev event.Event) {
	data, err := ev.Marshal()
	if err != nil {
		slog.Error("event marshal failed", "event_type", ev.Type, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Type)).Inc()
	b.fanout(data)
}

// PublishStatus delivers a status frame to all current subscribers.
func (b *Broadcaster) PublishStatus(st Status) {
	data, err := json.Marshal(st)
	if err != nil {
		slog.Error("status marshal failed", "status_type", st.Type, "error", err)
		return
	}
	b.fanout(data)
}

func (b *Broadcaster) fanout(data []byte) {
	for _, s := range b.registry.Snapshot() {
		deliver(s, data)
	}
}

// deliver enqueues one frame on a session, applying the slow-consumer
// policy: a full queue closes the session rather than dropping frames
// from the middle of its stream. Other sessions are unaffected.
func deliver(s *Session, data []byte) {
	err := s.Enqueue(data)
	switch {
	case err == nil:
	case errors.Is(err, ErrQueueFull):
		slog.Warn("slow subscriber disconnected", "session_id", s.ID())
		metrics.SlowClientDisconnects.Inc()
		s.Abort()
	default:
		// Session already closing; registry cleanup is underway.
	}
}

// SubscriberCount reports current registry size.
func (b *Broadcaster) SubscriberCount() int {
	return b.registry.Count()
}
