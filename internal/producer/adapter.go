// Package producer contains the upstream event generators and the
// adapter boundary through which they publish into the broadcast layer.
package producer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chainwatch/chainwatch/internal/event"
)

var (
	// ErrUnknownEventType rejects events whose type tag is not defined.
	ErrUnknownEventType = errors.New("producer: unknown event type")
	// ErrMissingTarget rejects entity-scoped events without a target id.
	ErrMissingTarget = errors.New("producer: missing target id")
)

// Publisher is the downstream fan-out an adapter feeds.
type Publisher interface {
	Publish(ev event.Event)
}

// Adapter is the boundary between one upstream generator and the
// broadcast layer. It validates the type tag and target, stamps origin
// and a per-adapter monotonic timestamp, and forwards the event. Payload
// contents are never inspected; schema correctness is the producer's
// contract with its consumers.
type Adapter struct {
	origin    string
	publisher Publisher
	clock     clockwork.Clock

	mu   sync.Mutex
	last time.Time
}

// NewAdapter creates an adapter stamping events with the given origin.
func NewAdapter(origin string, publisher Publisher, clock clockwork.Clock) *Adapter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Adapter{origin: origin, publisher: publisher, clock: clock}
}

// Emit publishes one event. The returned event carries the stamped
// timestamp and origin.
func (a *Adapter) Emit(typ event.Type, targetID string, payload map[string]any) (event.Event, error) {
	return a.emit(typ, targetID, payload, "")
}

// EmitForUser is Emit with the event attributed to the user whose
// request caused it.
func (a *Adapter) EmitForUser(typ event.Type, targetID string, payload map[string]any, userID string) (event.Event, error) {
	return a.emit(typ, targetID, payload, userID)
}

func (a *Adapter) emit(typ event.Type, targetID string, payload map[string]any, userID string) (event.Event, error) {
	if !event.Known(typ) {
		return event.Event{}, fmt.Errorf("%w: %q", ErrUnknownEventType, typ)
	}
	if targetID == "" && event.EntityScoped(typ) {
		return event.Event{}, fmt.Errorf("%w for %s", ErrMissingTarget, typ)
	}

	ev := event.Event{
		Type:      typ,
		TargetID:  targetID,
		Payload:   payload,
		EmittedAt: a.stamp(),
		Origin:    a.origin,
		UserID:    userID,
	}
	a.publisher.Publish(ev)
	return ev, nil
}

// stamp returns a wall-clock timestamp that is strictly increasing for
// this adapter, even if the wall clock stalls or steps backwards.
func (a *Adapter) stamp() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	if !now.After(a.last) {
		now = a.last.Add(time.Nanosecond)
	}
	a.last = now
	return now
}
