package ws

import (
	"errors"
	"sync"

	"github.com/chainwatch/chainwatch/internal/metrics"
)

// ErrRegistryFull is returned by Add when the subscriber limit is reached.
var ErrRegistryFull = errors.New("ws: registry full")

// Registry is the concurrency-safe membership set of live subscriber
// sessions. Broadcast iterates a point-in-time copy so sessions leaving
// mid-fanout never corrupt the iteration.
type Registry struct {
	mu       sync.RWMutex
	sessions map[*Session]bool
	limit    int
}

// NewRegistry creates a registry holding at most limit sessions.
// limit <= 0 means unlimited.
func NewRegistry(limit int) *Registry {
	return &Registry{
		sessions: make(map[*Session]bool),
		limit:    limit,
	}
}

// Add registers a session. Adding a session that is already present is a
// no-op, not an error.
func (r *Registry) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[s] {
		return nil
	}
	if r.limit > 0 && len(r.sessions) >= r.limit {
		return ErrRegistryFull
	}
	r.sessions[s] = true
	metrics.ConnectedClients.Set(float64(len(r.sessions)))
	return nil
}

// Remove unregisters a session. Removing an absent session is a no-op.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s]; !ok {
		return
	}
	delete(r.sessions, s)
	metrics.ConnectedClients.Set(float64(len(r.sessions)))
}

// Snapshot returns a copy of the current membership.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
